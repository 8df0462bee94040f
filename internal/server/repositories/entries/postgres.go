package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

const (
	siblingNameConstraint = "entries_sibling_name_key"
	parentFKConstraint    = "entries_parent_id_fkey"
)

const entryColumns = `id, owner_id, parent_id, name, is_folder, mime_type, size_bytes, blob_key, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e        models.Entry
		parentID sql.NullInt64
		blobKey  sql.NullString
	)
	err := row.Scan(&e.ID, &e.OwnerID, &parentID, &e.Name, &e.IsFolder, &e.MimeType,
		&e.SizeBytes, &blobKey, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		e.ParentID = &parentID.Int64
	}
	if blobKey.Valid {
		e.BlobKey = &blobKey.String
	}
	return &e, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Create inserts the entry only when the parent is nil or a folder owned by
// the same owner; otherwise no row comes back and ErrInvalidParent is returned.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (owner_id, parent_id, name, is_folder, mime_type, size_bytes, blob_key)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE $2::bigint IS NULL
		   OR EXISTS (SELECT 1 FROM entries p WHERE p.id = $2 AND p.owner_id = $1 AND p.is_folder)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.OwnerID, nullableID(e.ParentID), e.Name, e.IsFolder, e.MimeType, e.SizeBytes, nullableString(e.BlobKey),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrInvalidParent
	case dbx.IsUniqueViolation(err, siblingNameConstraint):
		return nil, common.ErrNameConflict
	case dbx.IsForeignKeyViolation(err, parentFKConstraint):
		return nil, common.ErrInvalidParent
	default:
		return nil, fmt.Errorf("db error: %w", err)
	}
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND lower(name) = lower($3)`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, ownerID, nullableID(parentID), name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	return hasChildren(ctx, r.db, id)
}

func hasChildren(ctx context.Context, db dbx.DBTX, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE parent_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY is_folder DESC, lower(name) ASC, id ASC`

	return r.selectEntries(ctx, query, ownerID, nullableID(parentID))
}

func (r *PostgresRepository) Rename(ctx context.Context, id int64, newName string) (*models.Entry, error) {
	query := `UPDATE entries SET name = $2, updated_at = now() WHERE id = $1 RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, newName))
	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNotFound
	case dbx.IsUniqueViolation(err, siblingNameConstraint):
		return nil, common.ErrNameConflict
	default:
		return nil, fmt.Errorf("db error: %w", err)
	}
}

// Delete removes one entry. The row is locked first so that a concurrent
// insert under the folder either completes before the emptiness check or
// fails on the foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	run := func(ctx context.Context, tx dbx.DBTX) error {
		var isFolder bool
		err := tx.QueryRowContext(ctx, `SELECT is_folder FROM entries WHERE id = $1 FOR UPDATE`, id).Scan(&isFolder)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		if isFolder {
			busy, err := hasChildren(ctx, tx, id)
			if err != nil {
				return err
			}
			if busy {
				return common.ErrNotEmpty
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
		if err != nil {
			if dbx.IsForeignKeyViolation(err, parentFKConstraint) {
				return common.ErrNotEmpty
			}
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

	if b, ok := r.db.(dbx.TxBeginner); ok {
		return dbx.WithTx(ctx, b, nil, run)
	}
	return run(ctx, r.db)
}

func (r *PostgresRepository) TotalFileBytes(ctx context.Context, ownerID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM entries WHERE owner_id = $1 AND NOT is_folder`,
		ownerID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) Search(ctx context.Context, ownerID int64, term string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE owner_id = $1 AND name ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY updated_at DESC, id DESC`

	return r.selectEntries(ctx, query, ownerID, escapeLike(term))
}

func (r *PostgresRepository) selectEntries(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in term match literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
