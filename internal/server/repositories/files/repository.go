package files

import (
	"context"

	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
)

// Column is a sortable file column.
type Column int

const (
	// ColumnNone keeps the default (insertion) order.
	ColumnNone Column = iota
	ColumnName
	ColumnCreatedAt
)

// Order describes how ListByOwner sorts its result.
type Order struct {
	Column Column
	Desc   bool
}

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*models.File, error)
	LockOwned(ctx context.Context, ownerID, id int64) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID int64, order Order) ([]*models.File, error)
	Update(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, ownerID, id int64) error
}
