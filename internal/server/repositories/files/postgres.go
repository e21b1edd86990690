// Package files provides the PostgreSQL-backed record store for spreadsheet
// files. Every lookup is scoped to the owning user.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/dbx"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
)

const selectColumns = `id, name, description, content, created_at, modified_at, user_id`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts file and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (name, description, content, created_at, modified_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.Description, file.Content, file.CreatedAt, file.ModifiedAt, file.UserID).Scan(&file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file: %w", err)
	}
	return file, nil
}

// GetOwned returns file id if it belongs to ownerID, common.ErrorNotFound otherwise.
func (r *PostgresRepository) GetOwned(ctx context.Context, ownerID, id int64) (*models.File, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE id = $1 AND user_id = $2`
	return scanFile(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// LockOwned is GetOwned that also takes a row lock until the enclosing
// transaction ends.
func (r *PostgresRepository) LockOwned(ctx context.Context, ownerID, id int64) (*models.File, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return scanFile(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// ListByOwner returns all files of ownerID sorted by order.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, order Order) ([]*models.File, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE user_id = $1 ORDER BY ` + orderClause(order)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Content, &f.CreatedAt, &f.ModifiedAt, &f.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes the mutable fields of file. Exactly one row must be affected.
func (r *PostgresRepository) Update(ctx context.Context, file *models.File) error {
	query := `
		UPDATE files SET name = $1, description = $2, content = $3, modified_at = $4
		WHERE id = $5 AND user_id = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		file.Name, file.Description, file.Content, file.ModifiedAt, file.ID, file.UserID)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	return expectOne(res)
}

// Delete removes file id of ownerID; common.ErrorNotFound if there is none.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return expectOne(res)
}

// orderClause only ever returns one of a fixed set of strings, so it is safe
// to concatenate into SQL. The id tiebreaker keeps equal keys stable.
func orderClause(o Order) string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	switch o.Column {
	case ColumnName:
		return "name " + dir + ", id " + dir
	case ColumnCreatedAt:
		return "created_at " + dir + ", id " + dir
	}
	return "id ASC"
}

func scanFile(row *sql.Row) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Content, &f.CreatedAt, &f.ModifiedAt, &f.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
