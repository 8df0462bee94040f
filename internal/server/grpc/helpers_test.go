package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/keygen"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"github.com/dmitrijs2005/gophdrive/internal/server/blobstore"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "test-secret"

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func testConfig(limit int64) *config.Config {
	return &config.Config{
		StorageLimitBytes: limit,
		BlobTimeout:       5 * time.Second,
		MetadataTimeout:   5 * time.Second,
		SignedURLTTL:      time.Hour,
	}
}

// newTestServer wires the real services over in-memory badger and blob
// stores.
func newTestServer(t *testing.T, limit int64) *GRPCServer {
	t.Helper()

	repos, err := repomanager.NewBadgerRepositoryManager("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	keys := keygen.NewRandom()
	shares := services.NewShareService(repos.Entries(), repos.Grants(), keys, "https://drive.example.com")
	storage := services.NewStorageService(repos, blobstore.NewMemory(), shares, keys, testConfig(limit), nopLogger{})

	return NewGRPCServer("127.0.0.1:0", nopLogger{}, storage, shares, testSecret)
}

// serve starts s on an in-process listener and returns a dialer for it.
func serve(t *testing.T, s *GRPCServer) func() *rpc.Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := s.newServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return func() *rpc.Client {
		c, err := rpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
}

func token(t *testing.T, userID int64, email string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, email, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func ptr[T any](v T) *T { return &v }
