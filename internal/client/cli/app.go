// Package cli implements the interactive GophDrive client: a small REPL over
// the DriveService gRPC API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
)

// DriveClient is the API surface the CLI drives. *rpc.Client satisfies it.
type DriveClient interface {
	Upload(ctx context.Context, parentID *int64, name, mimeType string, data []byte) (*rpc.Entry, error)
	CreateFolder(ctx context.Context, parentID *int64, name string) (*rpc.Entry, error)
	Download(ctx context.Context, id int64) (*rpc.Entry, []byte, error)
	DownloadURL(ctx context.Context, id int64) (string, error)
	Rename(ctx context.Context, id int64, name string) (*rpc.Entry, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, parentID *int64) ([]*rpc.Entry, error)
	Search(ctx context.Context, term string) ([]*rpc.Entry, error)
	StorageInfo(ctx context.Context) (*rpc.StorageUsage, error)
	ShareWithPrincipal(ctx context.Context, req *rpc.ShareRequest) (*rpc.Grant, error)
	CreateLink(ctx context.Context, req *rpc.CreateLinkRequest) (*rpc.Grant, string, error)
	ResolveLink(ctx context.Context, token, password string) (*rpc.LinkView, error)
	ListSharedWithMe(ctx context.Context) ([]*rpc.SharedItem, error)
	ListGrants(ctx context.Context, entryID int64) ([]*rpc.Grant, error)
	RevokeGrant(ctx context.Context, grantID int64) error
	Close() error
}

// crumb is one folder on the path from the root to the current folder.
type crumb struct {
	id   int64
	name string
}

type App struct {
	config *config.Config
	client DriveClient
	out    io.Writer
	path   []crumb
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := rpc.NewClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	apiClient.SetAccessToken(c.AccessToken)

	return &App{config: c, client: apiClient, out: os.Stdout}, nil
}

// cwd is the id of the current folder, nil at the root.
func (a *App) cwd() *int64 {
	if len(a.path) == 0 {
		return nil
	}
	id := a.path[len(a.path)-1].id
	return &id
}

func (a *App) getStatus() string {
	names := make([]string, 0, len(a.path))
	for _, c := range a.path {
		names = append(names, c.name)
	}
	return "/" + strings.Join(names, "/")
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintln(a.out, "Welcome to GophDrive CLI (type 'help' for commands)")
	if a.config.AccessToken == "" {
		fmt.Fprintln(a.out, "No access token configured; only share links (open, fetch) will work.")
	}

	runREPL(ctx, a, bufio.NewScanner(os.Stdin))
}
