package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDrive is an in-memory DriveClient: one folder tree, no sharing rules.
type fakeDrive struct {
	entries map[int64]*rpc.Entry
	data    map[int64][]byte
	nextID  int64

	linkPassword string
	linkView     *rpc.LinkView
	lastShare    *rpc.ShareRequest
	lastLink     *rpc.CreateLinkRequest
	revoked      []int64
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{entries: map[int64]*rpc.Entry{}, data: map[int64][]byte{}}
}

func (f *fakeDrive) add(parent *int64, name string, folder bool, data []byte) *rpc.Entry {
	f.nextID++
	e := &rpc.Entry{ID: f.nextID, ParentID: parent, Name: name, IsFolder: folder, SizeBytes: int64(len(data)), UpdatedAt: time.Now()}
	f.entries[e.ID] = e
	f.data[e.ID] = data
	return e
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeDrive) Upload(_ context.Context, parentID *int64, name, _ string, data []byte) (*rpc.Entry, error) {
	if int64(len(data)) > 1000 {
		return nil, common.ErrQuotaExceeded
	}
	e := f.add(parentID, name, false, data)
	e.MimeType = "text/plain"
	return e, nil
}

func (f *fakeDrive) CreateFolder(_ context.Context, parentID *int64, name string) (*rpc.Entry, error) {
	return f.add(parentID, name, true, nil), nil
}

func (f *fakeDrive) Download(_ context.Context, id int64) (*rpc.Entry, []byte, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, nil, common.ErrNotFound
	}
	return e, f.data[id], nil
}

func (f *fakeDrive) DownloadURL(_ context.Context, id int64) (string, error) {
	return fmt.Sprintf("https://blobs.example.com/%d", id), nil
}

func (f *fakeDrive) Rename(_ context.Context, id int64, name string) (*rpc.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	e.Name = name
	return e, nil
}

func (f *fakeDrive) Delete(_ context.Context, id int64) error {
	for _, e := range f.entries {
		if e.ParentID != nil && *e.ParentID == id {
			return common.ErrNotEmpty
		}
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeDrive) List(_ context.Context, parentID *int64) ([]*rpc.Entry, error) {
	var out []*rpc.Entry
	for id := int64(1); id <= f.nextID; id++ {
		if e, ok := f.entries[id]; ok && sameParent(e.ParentID, parentID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDrive) Search(_ context.Context, term string) ([]*rpc.Entry, error) {
	var out []*rpc.Entry
	for _, e := range f.entries {
		if strings.Contains(e.Name, term) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDrive) StorageInfo(context.Context) (*rpc.StorageUsage, error) {
	return &rpc.StorageUsage{UsedBytes: 512, LimitBytes: 1024, RemainingBytes: 512, Percentage: 50, Used: "512 B", Limit: "1.0 KiB"}, nil
}

func (f *fakeDrive) ShareWithPrincipal(_ context.Context, req *rpc.ShareRequest) (*rpc.Grant, error) {
	f.lastShare = req
	return &rpc.Grant{ID: 1, SubjectType: req.SubjectType, SubjectID: req.SubjectID, Mode: "direct", Principal: req.Email, Permission: "view"}, nil
}

func (f *fakeDrive) CreateLink(_ context.Context, req *rpc.CreateLinkRequest) (*rpc.Grant, string, error) {
	f.lastLink = req
	g := &rpc.Grant{ID: 2, SubjectType: req.SubjectType, SubjectID: req.SubjectID, Mode: "link", Token: "tok", Permission: req.Permission, HasPassword: req.Password != ""}
	return g, "https://drive.example.com/share/tok", nil
}

func (f *fakeDrive) ResolveLink(_ context.Context, token, password string) (*rpc.LinkView, error) {
	if token != "tok" {
		return nil, common.ErrNotFound
	}
	if f.linkPassword != "" && password != f.linkPassword {
		return nil, common.ErrForbidden
	}
	return f.linkView, nil
}

func (f *fakeDrive) ListSharedWithMe(context.Context) ([]*rpc.SharedItem, error) {
	return []*rpc.SharedItem{{Grant: &rpc.Grant{Permission: "edit"}, Entry: &rpc.Entry{ID: 77, Name: "team.doc"}}}, nil
}

func (f *fakeDrive) ListGrants(_ context.Context, entryID int64) ([]*rpc.Grant, error) {
	return []*rpc.Grant{{ID: 5, SubjectType: "file", SubjectID: entryID, Mode: "direct", Principal: "bob@example.com", Permission: "view"}}, nil
}

func (f *fakeDrive) RevokeGrant(_ context.Context, grantID int64) error {
	f.revoked = append(f.revoked, grantID)
	return nil
}

func (f *fakeDrive) Close() error { return nil }

func newTestApp(t *testing.T) (*App, *fakeDrive, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DownloadDir = t.TempDir()

	drive := newFakeDrive()
	out := &bytes.Buffer{}
	return &App{config: cfg, client: drive, out: out}, drive, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = orig })
}

func TestApp_FolderNavigation(t *testing.T) {
	a, _, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.exec(ctx, "mkdir", []string{"Docs"}))
	assert.Contains(t, out.String(), `Created folder "Docs" (id 1)`)

	require.NoError(t, a.exec(ctx, "cd", []string{"1"}))
	assert.Equal(t, "/Docs", a.getStatus())
	require.NotNil(t, a.cwd())
	assert.Equal(t, int64(1), *a.cwd())

	require.NoError(t, a.exec(ctx, "mkdir", []string{"2024"}))
	require.NoError(t, a.exec(ctx, "cd", []string{"2"}))
	assert.Equal(t, "/Docs/2024", a.getStatus())

	require.NoError(t, a.exec(ctx, "cd", []string{".."}))
	assert.Equal(t, "/Docs", a.getStatus())
	require.NoError(t, a.exec(ctx, "cd", []string{"/"}))
	assert.Nil(t, a.cwd())

	assert.Error(t, a.exec(ctx, "cd", []string{"2"}), "2 is not in the root")
	assert.ErrorIs(t, a.exec(ctx, "cd", nil), errUsage)
}

func TestApp_PutGetRemove(t *testing.T) {
	a, drive, out := newTestApp(t)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(local, []byte("hello"), 0o600))

	require.NoError(t, a.exec(ctx, "put", []string{local}))
	assert.Contains(t, out.String(), `Uploaded "notes.txt" (id 1, 5 B, text/plain)`)

	require.NoError(t, a.exec(ctx, "put", []string{local, "copy.txt"}))
	assert.Equal(t, "copy.txt", drive.entries[2].Name)

	require.NoError(t, a.exec(ctx, "get", []string{"1"}))
	b, err := os.ReadFile(filepath.Join(a.config.DownloadDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	out.Reset()
	require.NoError(t, a.exec(ctx, "ls", nil))
	assert.Contains(t, out.String(), "notes.txt")
	assert.Contains(t, out.String(), "copy.txt")

	require.NoError(t, a.exec(ctx, "mv", []string{"2", "final.txt"}))
	assert.Equal(t, "final.txt", drive.entries[2].Name)

	require.NoError(t, a.exec(ctx, "rm", []string{"2"}))
	_, ok := drive.entries[2]
	assert.False(t, ok)

	assert.ErrorContains(t, a.exec(ctx, "get", []string{"abc"}), "invalid id")
	assert.ErrorIs(t, a.exec(ctx, "get", []string{"99"}), common.ErrNotFound)
}

func TestApp_QuotaAndNotEmptyMessages(t *testing.T) {
	a, drive, _ := newTestApp(t)
	ctx := context.Background()

	big := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, 2000), 0o600))
	err := a.exec(ctx, "put", []string{big})
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "not enough space")

	folder := drive.add(nil, "Docs", true, nil)
	drive.add(&folder.ID, "a.txt", false, []byte("a"))
	assert.ErrorContains(t, a.exec(ctx, "rm", []string{"1"}), "is not empty")
}

func TestApp_Sharing(t *testing.T) {
	a, drive, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.exec(ctx, "share", []string{"file", "3", "bob@example.com", "edit"}))
	assert.Equal(t, &rpc.ShareRequest{SubjectType: "file", SubjectID: 3, Email: "bob@example.com", Permission: "edit"}, drive.lastShare)
	assert.Contains(t, out.String(), "-> bob@example.com")

	stubPassword(t, "s3cret")
	require.NoError(t, a.exec(ctx, "link", []string{"folder", "4", "edit", "-p"}))
	assert.Equal(t, "s3cret", drive.lastLink.Password)
	assert.Equal(t, "edit", drive.lastLink.Permission)
	assert.Contains(t, out.String(), "link (password)")
	assert.Contains(t, out.String(), "https://drive.example.com/share/tok")

	out.Reset()
	require.NoError(t, a.exec(ctx, "grants", []string{"3"}))
	assert.Contains(t, out.String(), "grant 5")

	require.NoError(t, a.exec(ctx, "revoke", []string{"5"}))
	assert.Equal(t, []int64{5}, drive.revoked)

	out.Reset()
	require.NoError(t, a.exec(ctx, "shared", nil))
	assert.Contains(t, out.String(), "team.doc")

	out.Reset()
	require.NoError(t, a.exec(ctx, "info", nil))
	assert.Contains(t, out.String(), "Used 512 B of 1.0 KiB (50%)")
}

func TestApp_OpenProtectedLink(t *testing.T) {
	a, drive, out := newTestApp(t)
	ctx := context.Background()

	drive.linkPassword = "pw"
	drive.linkView = &rpc.LinkView{
		Grant:    &rpc.Grant{Mode: "link", Permission: "view", SubjectType: "folder", SubjectID: 9},
		Entry:    &rpc.Entry{ID: 9, Name: "Photos", IsFolder: true},
		Children: []*rpc.Entry{{ID: 10, Name: "cat.jpg", SizeBytes: 2048}},
	}

	stubPassword(t, "pw")
	require.NoError(t, a.exec(ctx, "open", []string{"tok"}))
	assert.Contains(t, out.String(), "Link password: ")
	assert.Contains(t, out.String(), "cat.jpg")

	stubPassword(t, "wrong")
	assert.ErrorIs(t, a.exec(ctx, "open", []string{"tok"}), common.ErrForbidden)

	stubPassword(t, "pw")
	assert.ErrorContains(t, a.exec(ctx, "fetch", []string{"tok"}), "use open")
}

func TestApp_FetchFileLink(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pdf bytes"))
	}))
	defer ts.Close()

	a, drive, _ := newTestApp(t)
	drive.linkView = &rpc.LinkView{
		Grant: &rpc.Grant{Mode: "link", Permission: "view"},
		Entry: &rpc.Entry{ID: 3, Name: "cv.pdf"},
		URL:   ts.URL + "/users/1/blob",
	}

	require.NoError(t, a.exec(context.Background(), "fetch", []string{"tok"}))
	b, err := os.ReadFile(filepath.Join(a.config.DownloadDir, "cv.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(b))
}

func TestRunREPL(t *testing.T) {
	a, _, out := newTestApp(t)

	input := strings.Join([]string{"", "help", "bogus", "mkdir", "mkdir Docs", "exit", "ls"}, "\n")
	runREPL(context.Background(), a, bufio.NewScanner(strings.NewReader(input)))

	s := out.String()
	assert.Contains(t, s, "gdrive /> ")
	assert.Contains(t, s, "share <file|folder>")
	assert.Contains(t, s, `Error: unknown command "bogus"`)
	assert.Contains(t, s, "Usage: mkdir <name>")
	assert.Contains(t, s, `Created folder "Docs"`)
	assert.Contains(t, s, "Bye!")
	assert.NotContains(t, s, "ID  TYPE", "commands after exit must not run")
}
