// Package grants persists share grants. Grants are immutable once written;
// revocation deletes them. A grant may outlive its subject entry, so callers
// must re-check the entry when resolving.
package grants

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type Repository interface {
	// Create stores g and fills in ID and CreatedAt. A duplicate token yields
	// common.ErrConflict.
	Create(ctx context.Context, g *models.Grant) (*models.Grant, error)
	Get(ctx context.Context, id int64) (*models.Grant, error)
	// GetByToken fetches the link grant carrying token, common.ErrNotFound if none.
	GetByToken(ctx context.Context, token string) (*models.Grant, error)
	// ListByPrincipal returns the direct grants addressed to email.
	ListByPrincipal(ctx context.Context, email string) ([]*models.Grant, error)
	ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID int64) ([]*models.Grant, error)
	Delete(ctx context.Context, id int64) error
}
