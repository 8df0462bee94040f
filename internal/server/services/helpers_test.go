package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/blobstore"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// seqKeys hands out predictable blob keys and tokens so tests can refer to
// them; production uses keygen.Random.
type seqKeys struct {
	mu sync.Mutex
	n  int
}

func (k *seqKeys) next() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.n++
	return k.n
}

func (k *seqKeys) Token() (string, error) { return fmt.Sprintf("token-%d", k.next()), nil }

func (k *seqKeys) BlobKey(ownerID int64) string {
	return fmt.Sprintf("users/%d/blob-%d", ownerID, k.next())
}

type logRecord struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	records *[]logRecord
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{records: &[]logRecord{}}
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, logRecord{level, msg, args})
}

func (l *recordingLogger) Debug(_ context.Context, msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(_ context.Context, msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(_ context.Context, msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(_ context.Context, msg string, args ...any) { l.add("error", msg, args) }
func (l *recordingLogger) With(...any) logging.Logger                       { return l }

func (l *recordingLogger) warnings() []logRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logRecord
	for _, r := range *l.records {
		if r.level == "warn" {
			out = append(out, r)
		}
	}
	return out
}

type env struct {
	repos   repomanager.RepositoryManager
	blobs   *blobstore.Memory
	shares  *ShareService
	storage *StorageService
	logger  *recordingLogger
}

func newEnv(t *testing.T, limit int64) *env {
	t.Helper()
	return newEnvWithStore(t, limit, nil)
}

// newEnvWithStore wires the facade over in-memory badger metadata. A nil
// store means a fresh blobstore.Memory.
func newEnvWithStore(t *testing.T, limit int64, store blobstore.Store) *env {
	t.Helper()

	repos, err := repomanager.NewBadgerRepositoryManager("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorageLimitBytes = limit

	mem := blobstore.NewMemory()
	if store == nil {
		store = mem
	}

	keys := &seqKeys{}
	shares := NewShareService(repos.Entries(), repos.Grants(), keys, "https://drive.example.com/")
	shares.bcryptCost = bcrypt.MinCost

	logger := newRecordingLogger()
	storage := NewStorageService(repos, store, shares, keys, cfg, logger)

	return &env{repos: repos, blobs: mem, shares: shares, storage: storage, logger: logger}
}

func ptr[T any](v T) *T { return &v }
