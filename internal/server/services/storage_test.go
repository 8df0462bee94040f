package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/blobstore"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(list []*models.Entry) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Name)
	}
	return out
}

// Scenario A: the second upload would exceed the limit and changes nothing.
func TestUpload_QuotaExceeded(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	_, err := e.storage.Upload(ctx, 1, nil, "a.bin", "", make([]byte, 600))
	require.NoError(t, err)
	info, err := e.storage.StorageInfo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(600), info.UsedBytes)

	_, err = e.storage.Upload(ctx, 1, nil, "b.bin", "", make([]byte, 500))
	require.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.NotErrorIs(t, err, common.ErrConflict)
	assert.NotErrorIs(t, err, common.ErrForbidden)

	info, err = e.storage.StorageInfo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(600), info.UsedBytes)
	assert.Equal(t, 60, info.Percentage)
	assert.Equal(t, 1, e.blobs.Len(), "no blob is written for a refused upload")
}

// Scenario B: sibling names collide regardless of case.
func TestCreateFolder_NameConflictIgnoresCase(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	_, err := e.storage.CreateFolder(ctx, 1, nil, "Docs")
	require.NoError(t, err)

	_, err = e.storage.CreateFolder(ctx, 1, nil, "docs")
	assert.ErrorIs(t, err, common.ErrNameConflict)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = e.storage.Upload(ctx, 1, nil, "DOCS", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, common.ErrNameConflict)

	_, err = e.storage.CreateFolder(ctx, 2, nil, "docs")
	assert.NoError(t, err, "another owner has their own namespace")
}

func TestCreateFolder_Validation(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	_, err := e.storage.CreateFolder(ctx, 1, nil, "a/b")
	assert.ErrorIs(t, err, common.ErrInvalidName)

	_, err = e.storage.CreateFolder(ctx, 1, ptr(int64(77)), "x")
	assert.ErrorIs(t, err, common.ErrInvalidParent)

	f, err := e.storage.CreateFolder(ctx, 1, nil, "  Music ")
	require.NoError(t, err)
	assert.Equal(t, "Music", f.Name)
	assert.True(t, f.IsFolder)
	assert.Equal(t, common.FolderMimeType, f.MimeType)
	assert.Nil(t, f.BlobKey)
	assert.Zero(t, f.SizeBytes)
}

func TestUploadDownload_RoundTrip(t *testing.T) {
	e := newEnv(t, 1<<20)
	ctx := context.Background()

	folder, err := e.storage.CreateFolder(ctx, 1, nil, "Docs")
	require.NoError(t, err)

	payload := []byte("\x00\x01binary\xffpayload")
	up, err := e.storage.Upload(ctx, 1, &folder.ID, "data.bin", "application/x-custom", payload)
	require.NoError(t, err)
	require.NotNil(t, up.BlobKey)
	assert.False(t, strings.Contains(*up.BlobKey, "data.bin"), "blob keys never derive from names")
	assert.Equal(t, int64(len(payload)), up.SizeBytes)

	ct, ok := e.blobs.ContentType(*up.BlobKey)
	require.True(t, ok)
	assert.Equal(t, "application/x-custom", ct)

	got, data, err := e.storage.Download(ctx, Owner(1), up.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "application/x-custom", got.MimeType)
	if diff := cmp.Diff(up, got); diff != "" {
		t.Errorf("downloaded entry differs (-upload +download):\n%s", diff)
	}
}

func TestUpload_SniffsMimeType(t *testing.T) {
	e := newEnv(t, 1<<20)
	ctx := context.Background()

	up, err := e.storage.Upload(ctx, 1, nil, "scan", "", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", up.MimeType)
}

func TestDownload_Errors(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	folder, err := e.storage.CreateFolder(ctx, 1, nil, "Docs")
	require.NoError(t, err)
	f, err := e.storage.Upload(ctx, 1, nil, "a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)

	_, _, err = e.storage.Download(ctx, Owner(1), 999)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, _, err = e.storage.Download(ctx, Owner(2), f.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, _, err = e.storage.Download(ctx, Owner(1), folder.ID)
	assert.ErrorIs(t, err, common.ErrInvalidOperation)

	require.NoError(t, e.blobs.Delete(ctx, *f.BlobKey))
	_, _, err = e.storage.Download(ctx, Owner(1), f.ID)
	assert.ErrorIs(t, err, common.ErrStorageReadFailed)
}

type failingStore struct {
	*blobstore.Memory
	putErr    error
	deleteErr error
	urlErr    error
}

func (s *failingStore) Put(ctx context.Context, key string, data []byte, ct string) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.Memory.Put(ctx, key, data, ct)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Memory.Delete(ctx, key)
}

func (s *failingStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return s.Memory.SignedURL(ctx, key, ttl)
}

func TestUpload_BlobWriteFailureLeavesNoEntry(t *testing.T) {
	store := &failingStore{Memory: blobstore.NewMemory(), putErr: errors.New("bucket unavailable")}
	e := newEnvWithStore(t, 1000, store)
	ctx := context.Background()

	_, err := e.storage.Upload(ctx, 1, nil, "a.txt", "text/plain", []byte("abc"))
	require.ErrorIs(t, err, common.ErrStorageWriteFailed)
	assert.ErrorContains(t, err, "bucket unavailable")

	list, err := e.storage.List(ctx, Owner(1), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	info, err := e.storage.StorageInfo(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, info.UsedBytes)
}

// racingStore creates a same-named sibling while the blob is being written,
// so the upload loses the name race after its checks passed.
type racingStore struct {
	*blobstore.Memory
	before func()
}

func (s *racingStore) Put(ctx context.Context, key string, data []byte, ct string) error {
	if s.before != nil {
		s.before()
	}
	return s.Memory.Put(ctx, key, data, ct)
}

func TestUpload_LostNameRaceOrphansBlob(t *testing.T) {
	store := &racingStore{Memory: blobstore.NewMemory()}
	e := newEnvWithStore(t, 1000, store)
	ctx := context.Background()

	store.before = func() {
		store.before = nil
		_, err := e.storage.CreateFolder(ctx, 1, nil, "REPORT.txt")
		require.NoError(t, err)
	}

	_, err := e.storage.Upload(ctx, 1, nil, "report.txt", "text/plain", []byte("abc"))
	require.ErrorIs(t, err, common.ErrNameConflict)

	assert.Equal(t, 1, store.Len(), "the orphaned blob stays in place")
	warns := e.logger.warnings()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].msg, "orphaned blob")
	assert.Contains(t, warns[0].args, "blob_key")
}

func TestRename(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	a, err := e.storage.Upload(ctx, 1, nil, "a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)
	_, err = e.storage.Upload(ctx, 1, nil, "b.txt", "text/plain", []byte("b"))
	require.NoError(t, err)

	same, err := e.storage.Rename(ctx, Owner(1), a.ID, "a.txt")
	require.NoError(t, err, "renaming to the current name is a no-op")
	assert.True(t, a.UpdatedAt.Equal(same.UpdatedAt))

	_, err = e.storage.Rename(ctx, Owner(1), a.ID, "B.TXT")
	assert.ErrorIs(t, err, common.ErrNameConflict)

	upper, err := e.storage.Rename(ctx, Owner(1), a.ID, "A.txt")
	require.NoError(t, err, "changing only the case is allowed")
	assert.Equal(t, "A.txt", upper.Name)

	renamed, err := e.storage.Rename(ctx, Owner(1), a.ID, "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", renamed.Name)
	assert.Equal(t, a.BlobKey, renamed.BlobKey, "renames do not move bytes")

	_, err = e.storage.Rename(ctx, Owner(2), a.ID, "d.txt")
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = e.storage.Rename(ctx, Owner(1), 999, "d.txt")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = e.storage.Rename(ctx, Owner(1), a.ID, "..")
	assert.ErrorIs(t, err, common.ErrInvalidName)

	list, err := e.storage.List(ctx, Owner(1), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "c.txt"}, names(list))
}

func TestDelete_FolderMustBeEmpty(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	folder, err := e.storage.CreateFolder(ctx, 1, nil, "Docs")
	require.NoError(t, err)
	sub, err := e.storage.CreateFolder(ctx, 1, &folder.ID, "Sub")
	require.NoError(t, err)
	f, err := e.storage.Upload(ctx, 1, &sub.ID, "a.txt", "text/plain", []byte("abc"))
	require.NoError(t, err)

	assert.ErrorIs(t, e.storage.Delete(ctx, Owner(1), folder.ID), common.ErrNotEmpty)
	assert.ErrorIs(t, e.storage.Delete(ctx, Owner(1), sub.ID), common.ErrNotEmpty)
	assert.ErrorIs(t, e.storage.Delete(ctx, Owner(2), f.ID), common.ErrForbidden)

	require.NoError(t, e.storage.Delete(ctx, Owner(1), f.ID))
	assert.Zero(t, e.blobs.Len(), "file blobs are removed")
	require.NoError(t, e.storage.Delete(ctx, Owner(1), sub.ID))
	require.NoError(t, e.storage.Delete(ctx, Owner(1), folder.ID))

	assert.ErrorIs(t, e.storage.Delete(ctx, Owner(1), folder.ID), common.ErrNotFound)
}

func TestDelete_BlobFailureIsLoggedAndIgnored(t *testing.T) {
	store := &failingStore{Memory: blobstore.NewMemory()}
	e := newEnvWithStore(t, 1000, store)
	ctx := context.Background()

	f, err := e.storage.Upload(ctx, 1, nil, "a.txt", "text/plain", []byte("abc"))
	require.NoError(t, err)

	store.deleteErr = errors.New("s3 down")
	require.NoError(t, e.storage.Delete(ctx, Owner(1), f.ID))

	_, _, err = e.storage.Download(ctx, Owner(1), f.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	warns := e.logger.warnings()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].args, f.ID)
	assert.Contains(t, warns[0].args, *f.BlobKey)
}

func TestListAndSearch(t *testing.T) {
	e := newEnv(t, 1<<20)
	ctx := context.Background()

	docs, err := e.storage.CreateFolder(ctx, 1, nil, "docs")
	require.NoError(t, err)
	_, err = e.storage.CreateFolder(ctx, 1, nil, "Archive")
	require.NoError(t, err)
	_, err = e.storage.Upload(ctx, 1, nil, "zeta_report.txt", "text/plain", []byte("z"))
	require.NoError(t, err)
	_, err = e.storage.Upload(ctx, 1, nil, "alpha.txt", "text/plain", []byte("a"))
	require.NoError(t, err)
	_, err = e.storage.Upload(ctx, 1, &docs.ID, "Report 2024.pdf", "application/pdf", []byte("p"))
	require.NoError(t, err)
	_, err = e.storage.Upload(ctx, 2, nil, "report.txt", "text/plain", []byte("r"))
	require.NoError(t, err)

	root, err := e.storage.List(ctx, Owner(1), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive", "docs", "alpha.txt", "zeta_report.txt"}, names(root))

	inDocs, err := e.storage.List(ctx, Owner(1), &docs.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report 2024.pdf"}, names(inDocs))

	_, err = e.storage.List(ctx, Owner(2), &docs.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = e.storage.List(ctx, Access{}, nil)
	assert.ErrorIs(t, err, common.ErrForbidden)

	found, err := e.storage.Search(ctx, 1, "REPORT")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"zeta_report.txt", "Report 2024.pdf"}, names(found))

	found, err = e.storage.Search(ctx, 1, "_")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta_report.txt"}, names(found), "wildcards match literally")

	_, err = e.storage.Search(ctx, 1, "   ")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestAccessThroughGrants(t *testing.T) {
	e := newEnv(t, 1<<20)
	ctx := context.Background()

	shared, err := e.storage.CreateFolder(ctx, 1, nil, "Shared")
	require.NoError(t, err)
	inner, err := e.storage.CreateFolder(ctx, 1, &shared.ID, "Inner")
	require.NoError(t, err)
	deep, err := e.storage.Upload(ctx, 1, &inner.ID, "deep.txt", "text/plain", []byte("deep"))
	require.NoError(t, err)
	private, err := e.storage.Upload(ctx, 1, nil, "private.txt", "text/plain", []byte("private"))
	require.NoError(t, err)

	t.Run("view link covers descendants read-only", func(t *testing.T) {
		g, err := e.shares.CreateLink(ctx, 1, models.SubjectFolder, shared.ID, ShareOptions{})
		require.NoError(t, err)
		acc := Access{Token: g.Token}

		_, data, err := e.storage.Download(ctx, acc, deep.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("deep"), data)

		list, err := e.storage.List(ctx, acc, &inner.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"deep.txt"}, names(list))

		u, err := e.storage.DownloadURL(ctx, acc, deep.ID)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "memory:"))

		_, err = e.storage.Rename(ctx, acc, deep.ID, "mine.txt")
		assert.ErrorIs(t, err, common.ErrForbidden)
		assert.ErrorIs(t, e.storage.Delete(ctx, acc, deep.ID), common.ErrForbidden)

		_, _, err = e.storage.Download(ctx, acc, private.ID)
		assert.ErrorIs(t, err, common.ErrForbidden, "a folder link does not reach outside the folder")
	})

	t.Run("edit link allows mutation", func(t *testing.T) {
		g, err := e.shares.CreateLink(ctx, 1, models.SubjectFolder, inner.ID, ShareOptions{Permission: models.PermissionEdit})
		require.NoError(t, err)
		acc := Access{Token: g.Token}

		renamed, err := e.storage.Rename(ctx, acc, deep.ID, "renamed.txt")
		require.NoError(t, err)
		assert.Equal(t, "renamed.txt", renamed.Name)
	})

	t.Run("invalid or expired token", func(t *testing.T) {
		_, _, err := e.storage.Download(ctx, Access{Token: "bogus"}, deep.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("direct grant by email", func(t *testing.T) {
		acc := Access{OwnerID: 2, Email: "bob@example.com"}

		_, _, err := e.storage.Download(ctx, acc, deep.ID)
		assert.ErrorIs(t, err, common.ErrForbidden)

		_, err = e.shares.ShareWithPrincipal(ctx, 1, models.SubjectFolder, shared.ID, "bob@example.com", ShareOptions{})
		require.NoError(t, err)
		_, _, err = e.storage.Download(ctx, acc, deep.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, e.storage.Delete(ctx, acc, deep.ID), common.ErrForbidden)

		_, err = e.shares.ShareWithPrincipal(ctx, 1, models.SubjectFile, deep.ID, "bob@example.com", ShareOptions{Permission: models.PermissionEdit})
		require.NoError(t, err)
		_, err = e.storage.Rename(ctx, acc, deep.ID, "bob.txt")
		require.NoError(t, err, "the stronger of two applicable grants wins")

		_, err = e.storage.Upload(ctx, 2, &shared.ID, "x.txt", "text/plain", []byte("x"))
		assert.ErrorIs(t, err, common.ErrInvalidParent, "uploads stay owner-only")
	})
}

func TestOpenLink(t *testing.T) {
	e := newEnv(t, 1<<20)
	ctx := context.Background()

	folder, err := e.storage.CreateFolder(ctx, 1, nil, "Album")
	require.NoError(t, err)
	_, err = e.storage.Upload(ctx, 1, &folder.ID, "1.jpg", "image/jpeg", []byte("jpg"))
	require.NoError(t, err)
	f, err := e.storage.Upload(ctx, 1, nil, "notes.txt", "text/plain", []byte("n"))
	require.NoError(t, err)

	fg, err := e.shares.CreateLink(ctx, 1, models.SubjectFolder, folder.ID, ShareOptions{})
	require.NoError(t, err)
	view, err := e.storage.OpenLink(ctx, fg.Token, "")
	require.NoError(t, err)
	assert.Equal(t, folder.ID, view.Entry.ID)
	assert.Equal(t, []string{"1.jpg"}, names(view.Children))
	assert.Empty(t, view.URL)

	lg, err := e.shares.CreateLink(ctx, 1, models.SubjectFile, f.ID, ShareOptions{})
	require.NoError(t, err)
	view, err = e.storage.OpenLink(ctx, lg.Token, "")
	require.NoError(t, err)
	assert.Equal(t, f.ID, view.Entry.ID)
	assert.NotEmpty(t, view.URL)
	assert.Nil(t, view.Children)

	_, err = e.storage.OpenLink(ctx, "nope", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDownloadURL_StoreFailure(t *testing.T) {
	store := &failingStore{Memory: blobstore.NewMemory()}
	e := newEnvWithStore(t, 1000, store)
	ctx := context.Background()

	f, err := e.storage.Upload(ctx, 1, nil, "a.txt", "text/plain", []byte("abc"))
	require.NoError(t, err)

	store.urlErr = errors.New("presign failed")
	_, err = e.storage.DownloadURL(ctx, Owner(1), f.ID)
	assert.ErrorIs(t, err, common.ErrStorageReadFailed)
}
