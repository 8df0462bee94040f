package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
)

// MaxNameBytes bounds an entry name after trimming.
const MaxNameBytes = 255

// ValidateName trims surrounding whitespace and rejects names that cannot
// be shown as a single path segment. The trimmed name is returned.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "", name == ".", name == "..":
		return "", common.ErrInvalidName
	case len(name) > MaxNameBytes:
		return "", common.ErrInvalidName
	case strings.ContainsAny(name, "/\\\x00"):
		return "", common.ErrInvalidName
	}
	return name, nil
}

// NamespaceManager holds the tree rules that sit in front of the entry
// repository. It never writes.
type NamespaceManager struct {
	entries entries.Repository
}

func NewNamespaceManager(r entries.Repository) *NamespaceManager {
	return &NamespaceManager{entries: r}
}

// ValidateParent accepts nil (the owner's root) or an existing folder owned
// by ownerID. Anything else is common.ErrInvalidParent.
func (n *NamespaceManager) ValidateParent(ctx context.Context, ownerID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	parent, err := n.entries.Get(ctx, *parentID)
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrInvalidParent
	}
	if err != nil {
		return err
	}
	if !parent.IsFolder || parent.OwnerID != ownerID {
		return common.ErrInvalidParent
	}
	return nil
}

// ValidateUniqueName fails with common.ErrNameConflict when a sibling other
// than excludeID already uses name, ignoring case.
func (n *NamespaceManager) ValidateUniqueName(ctx context.Context, ownerID int64, parentID *int64, name string, excludeID *int64) error {
	existing, err := n.entries.FindByName(ctx, ownerID, parentID, name)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if excludeID != nil && existing.ID == *excludeID {
		return nil
	}
	return common.ErrNameConflict
}

// ValidateDeletable fails with common.ErrNotEmpty for a folder that still
// has children. Files are always deletable.
func (n *NamespaceManager) ValidateDeletable(ctx context.Context, e *models.Entry) error {
	if !e.IsFolder {
		return nil
	}
	has, err := n.entries.HasChildren(ctx, e.ID)
	if err != nil {
		return err
	}
	if has {
		return common.ErrNotEmpty
	}
	return nil
}
