package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

const tokenConstraint = "grants_token_key"

const grantColumns = `id, owner_id, subject_type, subject_id, mode, principal, token, permission, password_hash, created_at, expires_at`

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (*models.Grant, error) {
	var (
		g         models.Grant
		principal sql.NullString
		token     sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(&g.ID, &g.OwnerID, &g.SubjectType, &g.SubjectID, &g.Mode, &principal, &token,
		&g.Permission, &g.PasswordHash, &g.CreatedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	g.Principal = principal.String
	g.Token = token.String
	if expiresAt.Valid {
		t := expiresAt.Time
		g.ExpiresAt = &t
	}
	return &g, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.Grant) (*models.Grant, error) {
	query := `
		INSERT INTO grants (owner_id, subject_type, subject_id, mode, principal, token, permission, password_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		g.OwnerID, string(g.SubjectType), g.SubjectID, string(g.Mode), nullString(g.Principal), nullString(g.Token),
		string(g.Permission), nullBytes(g.PasswordHash), nullTime(g.ExpiresAt),
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, tokenConstraint) {
			return nil, fmt.Errorf("%w: token already issued", common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Grant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Grant, error) {
	return r.getOne(ctx, `SELECT `+grantColumns+` FROM grants WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.Grant, error) {
	return r.getOne(ctx, `SELECT `+grantColumns+` FROM grants WHERE token = $1 AND mode = 'link'`, token)
}

func (r *PostgresRepository) ListByPrincipal(ctx context.Context, email string) ([]*models.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM grants
		WHERE principal = $1 AND mode = 'direct'
		ORDER BY created_at ASC, id ASC`
	return r.selectGrants(ctx, query, email)
}

func (r *PostgresRepository) ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID int64) ([]*models.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM grants
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY created_at ASC, id ASC`
	return r.selectGrants(ctx, query, string(subjectType), subjectID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) selectGrants(ctx context.Context, query string, args ...any) ([]*models.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select grants: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
