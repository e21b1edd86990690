package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/dbx"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/content"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/repomanager"
)

// Sort fields and orders accepted by List.
const (
	SortFieldName = "name"
	SortFieldDate = "date"
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// MaxNameLength is the width of files.name, in characters.
const MaxNameLength = 120

// ListOptions selects the ordering of List. Unrecognized fields leave the
// result in insertion order; any order other than "asc" sorts descending.
type ListOptions struct {
	SortField string
	SortOrder string
}

func (o ListOptions) order() files.Order {
	var ord files.Order
	switch o.SortField {
	case SortFieldName:
		ord.Column = files.ColumnName
	case SortFieldDate:
		ord.Column = files.ColumnCreatedAt
	default:
		return files.Order{Column: files.ColumnNone}
	}
	ord.Desc = o.SortOrder != SortOrderAsc
	return ord
}

// NewFile is a create request. Nil pointers are absent fields.
type NewFile struct {
	Name        *string
	Description *string
	Content     *content.Raw
}

// FilePatch is an update request. Only non-nil fields are applied.
type FilePatch struct {
	Name        *string
	Description *string
	Content     *content.Raw
}

var readOnly = &sql.TxOptions{ReadOnly: true}

// FileService manages spreadsheet files on behalf of their owners. Every call
// runs in its own transaction and only ever sees the caller's files.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		// postgres keeps microseconds
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// List returns the owner's files ordered per opts.
func (s *FileService) List(ctx context.Context, owner int64, opts ListOptions) ([]*models.File, error) {
	return dbx.InTx(ctx, s.db, readOnly, func(ctx context.Context, tx dbx.DBTX) ([]*models.File, error) {
		list, err := s.repomanager.Files(tx).ListByOwner(ctx, owner, opts.order())
		if err != nil {
			return nil, fmt.Errorf("error listing files: %w", err)
		}
		return list, nil
	})
}

// Create stores a new file for owner. Name is required; absent content is
// stored as content.Default.
func (s *FileService) Create(ctx context.Context, owner int64, in NewFile) (*models.File, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, common.Invalid("File name is required")
	}
	if err := checkNameLength(*in.Name); err != nil {
		return nil, err
	}

	body := content.Default
	if in.Content != nil {
		c, err := content.Normalize(*in.Content)
		if err != nil {
			return nil, err
		}
		body = c
	}

	now := s.now()
	f := &models.File{
		Name:       *in.Name,
		Content:    body,
		CreatedAt:  now,
		ModifiedAt: now,
		UserID:     owner,
	}
	if in.Description != nil {
		f.Description = *in.Description
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.File, error) {
		created, err := s.repomanager.Files(tx).Create(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("error creating file: %w", err)
		}
		return created, nil
	})
}

func checkNameLength(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return common.Invalid(fmt.Sprintf("File name must be at most %d characters", MaxNameLength))
	}
	return nil
}

// Get returns file id if owner owns it, common.ErrorNotFound otherwise.
func (s *FileService) Get(ctx context.Context, owner, id int64) (*models.File, error) {
	return dbx.InTx(ctx, s.db, readOnly, func(ctx context.Context, tx dbx.DBTX) (*models.File, error) {
		return s.loadOwned(ctx, s.repomanager.Files(tx), owner, id, false)
	})
}

// Update applies the present fields of patch to file id and bumps its
// modification time, even when patch is empty. Content goes through
// content.Normalize; if anything fails nothing is written.
func (s *FileService) Update(ctx context.Context, owner, id int64, patch FilePatch) (*models.File, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.File, error) {
		repo := s.repomanager.Files(tx)

		f, err := s.loadOwned(ctx, repo, owner, id, true)
		if err != nil {
			return nil, err
		}

		if patch.Name != nil {
			if *patch.Name == "" {
				return nil, common.Invalid("File name cannot be empty")
			}
			if err := checkNameLength(*patch.Name); err != nil {
				return nil, err
			}
			f.Name = *patch.Name
		}
		if patch.Description != nil {
			f.Description = *patch.Description
		}
		if patch.Content != nil {
			c, err := content.Normalize(*patch.Content)
			if err != nil {
				return nil, err
			}
			f.Content = c
		}
		f.ModifiedAt = s.now()

		if err := repo.Update(ctx, f); err != nil {
			return nil, fmt.Errorf("error updating file: %w", err)
		}
		return f, nil
	})
}

// Delete permanently removes file id of owner.
func (s *FileService) Delete(ctx context.Context, owner, id int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		if _, err := s.loadOwned(ctx, repo, owner, id, true); err != nil {
			return err
		}
		if err := repo.Delete(ctx, owner, id); err != nil {
			return fmt.Errorf("error deleting file: %w", err)
		}
		return nil
	})
}

// loadOwned is the single ownership check. A file that does not exist and a
// file owned by someone else are both common.ErrorNotFound.
func (s *FileService) loadOwned(ctx context.Context, repo files.Repository, owner, id int64, lock bool) (*models.File, error) {
	load := repo.GetOwned
	if lock {
		load = repo.LockOwned
	}

	f, err := load(ctx, owner, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading file: %w", err)
	}
	return f, nil
}
