// Package entries persists the file/folder tree of every owner. It is the
// source of truth for names, parents and sizes; it never touches blobs.
//
// Two implementations exist: PostgresRepository for deployments and
// BadgerRepository for single-node installs and tests.
package entries

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Repository is the entry store contract.
//
// Errors: common.ErrNotFound for missing ids, common.ErrInvalidParent when the
// parent is not a folder of the same owner, common.ErrNameConflict for a
// case-insensitive sibling collision and common.ErrNotEmpty when deleting a
// folder that still has children.
type Repository interface {
	// Create inserts e and fills in its ID and timestamps.
	Create(ctx context.Context, e *models.Entry) (*models.Entry, error)
	Get(ctx context.Context, id int64) (*models.Entry, error)
	// FindByName looks a sibling up case-insensitively.
	FindByName(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Entry, error)
	HasChildren(ctx context.Context, id int64) (bool, error)
	// ListChildren returns folders first, then names ascending ignoring case,
	// then id ascending.
	ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Entry, error)
	Rename(ctx context.Context, id int64, newName string) (*models.Entry, error)
	Delete(ctx context.Context, id int64) error
	// TotalFileBytes sums the sizes of the owner's live files. It is computed
	// on every call.
	TotalFileBytes(ctx context.Context, ownerID int64) (int64, error)
	// Search matches term as a case-insensitive substring of names across the
	// whole namespace, most recently updated first.
	Search(ctx context.Context, ownerID int64, term string) ([]*models.Entry, error)
}
