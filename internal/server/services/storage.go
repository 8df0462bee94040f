// Package services holds GophDrive's storage logic: the namespace rules,
// quota accounting, sharing, and the StorageService facade the transports
// call.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/keygen"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/blobstore"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/gabriel-vasile/mimetype"
)

// maxAncestorDepth bounds the walk from an entry up to a shared folder.
const maxAncestorDepth = 64

// Access describes who is calling. OwnerID and Email come from a verified
// access token; Token and Password from a share link. Any combination may
// be empty.
type Access struct {
	OwnerID  int64
	Email    string
	Token    string
	Password string
}

// Owner is the Access of an authenticated user acting on their own files.
func Owner(id int64) Access {
	return Access{OwnerID: id}
}

// LinkView is what a share link opens to: the grant, its entry, and either
// the folder listing or a signed download URL.
type LinkView struct {
	Grant    *models.Grant
	Entry    *models.Entry
	Children []*models.Entry
	URL      string
}

// StorageService is the facade every user-facing file operation goes
// through. It is the only component that touches the blob store.
type StorageService struct {
	entries   entries.Repository
	namespace *NamespaceManager
	quota     *QuotaAccountant
	shares    *ShareService
	blobs     blobstore.Store
	keys      keygen.Generator
	logger    logging.Logger

	blobTimeout     time.Duration
	metadataTimeout time.Duration
	signedURLTTL    time.Duration
}

func NewStorageService(m repomanager.RepositoryManager, blobs blobstore.Store, shares *ShareService, keys keygen.Generator, cfg *config.Config, logger logging.Logger) *StorageService {
	return &StorageService{
		entries:         m.Entries(),
		namespace:       NewNamespaceManager(m.Entries()),
		quota:           NewQuotaAccountant(m.Entries(), StaticLimit(cfg.StorageLimitBytes)),
		shares:          shares,
		blobs:           blobs,
		keys:            keys,
		logger:          logger.With("module", "storage"),
		blobTimeout:     cfg.BlobTimeout,
		metadataTimeout: cfg.MetadataTimeout,
		signedURLTTL:    cfg.SignedURLTTL,
	}
}

func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func (s *StorageService) meta(ctx context.Context, fn func(context.Context) error) error {
	_, err := withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (s *StorageService) getEntry(ctx context.Context, id int64) (*models.Entry, error) {
	return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) (*models.Entry, error) {
		return s.entries.Get(ctx, id)
	})
}

// Upload stores data as a new file. The blob is written under a fresh key
// before any metadata; if the entry cannot be created afterwards the blob is
// left behind and logged.
func (s *StorageService) Upload(ctx context.Context, ownerID int64, parentID *int64, name, mimeType string, data []byte) (*models.Entry, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if err := s.meta(ctx, func(ctx context.Context) error { return s.namespace.ValidateParent(ctx, ownerID, parentID) }); err != nil {
		return nil, err
	}
	if err := s.meta(ctx, func(ctx context.Context) error {
		return s.namespace.ValidateUniqueName(ctx, ownerID, parentID, name, nil)
	}); err != nil {
		return nil, err
	}
	if err := s.meta(ctx, func(ctx context.Context) error {
		return s.quota.CheckCapacity(ctx, ownerID, int64(len(data)))
	}); err != nil {
		return nil, err
	}

	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	key := s.keys.BlobKey(ownerID)
	if _, err := withTimeout(ctx, s.blobTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.blobs.Put(ctx, key, data, mimeType)
	}); err != nil {
		return nil, common.StorageWriteError(err)
	}

	e, err := withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) (*models.Entry, error) {
		return s.entries.Create(ctx, &models.Entry{
			OwnerID:   ownerID,
			ParentID:  parentID,
			Name:      name,
			MimeType:  mimeType,
			SizeBytes: int64(len(data)),
			BlobKey:   &key,
		})
	})
	if err != nil {
		s.logger.Warn(ctx, "orphaned blob after failed entry create",
			"owner_id", ownerID, "blob_key", key, "error", err)
		return nil, err
	}

	s.logger.Debug(ctx, "uploaded", "owner_id", ownerID, "entry_id", e.ID, "size", e.SizeBytes)
	return e, nil
}

func (s *StorageService) CreateFolder(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Entry, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if err := s.meta(ctx, func(ctx context.Context) error { return s.namespace.ValidateParent(ctx, ownerID, parentID) }); err != nil {
		return nil, err
	}
	if err := s.meta(ctx, func(ctx context.Context) error {
		return s.namespace.ValidateUniqueName(ctx, ownerID, parentID, name, nil)
	}); err != nil {
		return nil, err
	}

	return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) (*models.Entry, error) {
		return s.entries.Create(ctx, &models.Entry{
			OwnerID:  ownerID,
			ParentID: parentID,
			Name:     name,
			IsFolder: true,
			MimeType: common.FolderMimeType,
		})
	})
}

// Download returns the file entry together with its bytes.
func (s *StorageService) Download(ctx context.Context, access Access, entryID int64) (*models.Entry, []byte, error) {
	e, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(ctx, access, e, models.PermissionView); err != nil {
		return nil, nil, err
	}
	if e.IsFolder || e.BlobKey == nil {
		return nil, nil, fmt.Errorf("%w: cannot download a folder", common.ErrInvalidOperation)
	}

	data, err := withTimeout(ctx, s.blobTimeout, func(ctx context.Context) ([]byte, error) {
		return s.blobs.Get(ctx, *e.BlobKey)
	})
	if err != nil {
		return nil, nil, common.StorageReadError(err)
	}
	return e, data, nil
}

// DownloadURL returns a time-limited direct URL for a file.
func (s *StorageService) DownloadURL(ctx context.Context, access Access, entryID int64) (string, error) {
	e, err := s.getEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, access, e, models.PermissionView); err != nil {
		return "", err
	}
	return s.signedURL(ctx, e)
}

func (s *StorageService) signedURL(ctx context.Context, e *models.Entry) (string, error) {
	if e.IsFolder || e.BlobKey == nil {
		return "", fmt.Errorf("%w: cannot download a folder", common.ErrInvalidOperation)
	}
	u, err := withTimeout(ctx, s.blobTimeout, func(ctx context.Context) (string, error) {
		return s.blobs.SignedURL(ctx, *e.BlobKey, s.signedURLTTL)
	})
	if err != nil {
		return "", common.StorageReadError(err)
	}
	return u, nil
}

// Rename changes an entry's name in place. Renaming to the current name is a
// no-op; changing only the case is allowed.
func (s *StorageService) Rename(ctx context.Context, access Access, entryID int64, newName string) (*models.Entry, error) {
	newName, err := ValidateName(newName)
	if err != nil {
		return nil, err
	}
	e, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, access, e, models.PermissionEdit); err != nil {
		return nil, err
	}
	if e.Name == newName {
		return e, nil
	}
	if err := s.meta(ctx, func(ctx context.Context) error {
		return s.namespace.ValidateUniqueName(ctx, e.OwnerID, e.ParentID, newName, &e.ID)
	}); err != nil {
		return nil, err
	}

	return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) (*models.Entry, error) {
		return s.entries.Rename(ctx, e.ID, newName)
	})
}

// Delete removes an entry. A file's blob goes first; if that fails the
// failure is logged and the entry is deleted anyway.
func (s *StorageService) Delete(ctx context.Context, access Access, entryID int64) error {
	e, err := s.getEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, access, e, models.PermissionEdit); err != nil {
		return err
	}

	if e.IsFolder {
		if err := s.meta(ctx, func(ctx context.Context) error { return s.namespace.ValidateDeletable(ctx, e) }); err != nil {
			return err
		}
	} else if e.BlobKey != nil {
		if _, err := withTimeout(ctx, s.blobTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.blobs.Delete(ctx, *e.BlobKey)
		}); err != nil {
			s.logger.Warn(ctx, "blob delete failed, deleting entry anyway",
				"owner_id", e.OwnerID, "entry_id", e.ID, "blob_key", *e.BlobKey, "error", err)
		}
	}

	return s.meta(ctx, func(ctx context.Context) error { return s.entries.Delete(ctx, e.ID) })
}

// List returns the children of parentID. A nil parent is the caller's own
// root; a shared folder may be listed by anyone holding a grant on it.
func (s *StorageService) List(ctx context.Context, access Access, parentID *int64) ([]*models.Entry, error) {
	if parentID == nil {
		if access.OwnerID == 0 {
			return nil, common.ErrForbidden
		}
		return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) ([]*models.Entry, error) {
			return s.entries.ListChildren(ctx, access.OwnerID, nil)
		})
	}

	folder, err := s.getEntry(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, access, folder, models.PermissionView); err != nil {
		return nil, err
	}
	if !folder.IsFolder {
		return nil, common.ErrInvalidParent
	}
	return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) ([]*models.Entry, error) {
		return s.entries.ListChildren(ctx, folder.OwnerID, &folder.ID)
	})
}

// Search finds the owner's entries whose name contains term, ignoring case.
func (s *StorageService) Search(ctx context.Context, ownerID int64, term string) ([]*models.Entry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: empty search term", common.ErrInvalidArgument)
	}
	return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) ([]*models.Entry, error) {
		return s.entries.Search(ctx, ownerID, term)
	})
}

func (s *StorageService) StorageInfo(ctx context.Context, ownerID int64) (*models.StorageUsage, error) {
	return withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) (*models.StorageUsage, error) {
		return s.quota.UsageSnapshot(ctx, ownerID)
	})
}

// OpenLink resolves a share token into what the link shows.
func (s *StorageService) OpenLink(ctx context.Context, token, password string) (*LinkView, error) {
	var (
		g *models.Grant
		e *models.Entry
	)
	if err := s.meta(ctx, func(ctx context.Context) error {
		var err error
		g, e, err = s.shares.ResolveByToken(ctx, token, password)
		return err
	}); err != nil {
		return nil, err
	}

	view := &LinkView{Grant: g, Entry: e}
	if e.IsFolder {
		children, err := withTimeout(ctx, s.metadataTimeout, func(ctx context.Context) ([]*models.Entry, error) {
			return s.entries.ListChildren(ctx, e.OwnerID, &e.ID)
		})
		if err != nil {
			return nil, err
		}
		view.Children = children
		return view, nil
	}

	u, err := s.signedURL(ctx, e)
	if err != nil {
		return nil, err
	}
	view.URL = u
	return view, nil
}

// authorize decides whether access may act on e with the required
// permission. Owners always may. Otherwise a link token or a direct grant to
// access.Email must cover e, either naming it or one of its ancestors.
func (s *StorageService) authorize(ctx context.Context, access Access, e *models.Entry, required models.Permission) error {
	if access.OwnerID != 0 && access.OwnerID == e.OwnerID {
		return nil
	}

	if access.Token != "" {
		var (
			g       *models.Grant
			subject *models.Entry
		)
		if err := s.meta(ctx, func(ctx context.Context) error {
			var err error
			g, subject, err = s.shares.ResolveByToken(ctx, access.Token, access.Password)
			return err
		}); err != nil {
			return err
		}
		covered, err := s.covers(ctx, subject, e)
		if err != nil {
			return err
		}
		if !covered || !g.Permission.Allows(required) {
			return common.ErrForbidden
		}
		return nil
	}

	if access.Email != "" {
		var direct []*models.Grant
		if err := s.meta(ctx, func(ctx context.Context) error {
			var err error
			direct, err = s.shares.activeDirectGrants(ctx, access.Email)
			return err
		}); err != nil {
			return err
		}
		perm, err := s.bestPermission(ctx, direct, e)
		if err != nil {
			return err
		}
		if perm.Allows(required) {
			return nil
		}
	}

	return common.ErrForbidden
}

// covers reports whether a grant on subject reaches e.
func (s *StorageService) covers(ctx context.Context, subject, e *models.Entry) (bool, error) {
	if subject.ID == e.ID {
		return true, nil
	}
	if !subject.IsFolder || subject.OwnerID != e.OwnerID {
		return false, nil
	}
	found := false
	err := s.walkAncestors(ctx, e, func(a *models.Entry) bool {
		found = a.ID == subject.ID
		return !found
	})
	return found, err
}

// bestPermission returns the strongest permission any of grants gives on e
// or its ancestors, or "" when none applies.
func (s *StorageService) bestPermission(ctx context.Context, grants []*models.Grant, e *models.Entry) (models.Permission, error) {
	if len(grants) == 0 {
		return "", nil
	}
	type subjectKey struct {
		t  models.SubjectType
		id int64
	}
	byKey := make(map[subjectKey]models.Permission, len(grants))
	for _, g := range grants {
		if g.OwnerID != e.OwnerID {
			continue
		}
		k := subjectKey{g.SubjectType, g.SubjectID}
		if byKey[k] != models.PermissionEdit {
			byKey[k] = g.Permission
		}
	}

	var best models.Permission
	check := func(a *models.Entry) bool {
		if p, ok := byKey[subjectKey{a.Kind(), a.ID}]; ok && (best == "" || p == models.PermissionEdit) {
			best = p
		}
		return best != models.PermissionEdit
	}
	if !check(e) {
		return best, nil
	}
	err := s.walkAncestors(ctx, e, check)
	return best, err
}

// walkAncestors calls fn for each folder above e, nearest first, until fn
// returns false or the root is reached.
func (s *StorageService) walkAncestors(ctx context.Context, e *models.Entry, fn func(*models.Entry) bool) error {
	parentID := e.ParentID
	for depth := 0; parentID != nil && depth < maxAncestorDepth; depth++ {
		parent, err := s.getEntry(ctx, *parentID)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !fn(parent) {
			return nil
		}
		parentID = parent.ParentID
	}
	return nil
}
