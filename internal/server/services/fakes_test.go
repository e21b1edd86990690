package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/dbx"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// newMockDB returns a sqlmock-backed *sql.DB. The services never send SQL
// through it themselves (the fake repositories ignore the DBTX), so only
// Begin/Commit/Rollback expectations are set on it.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeRepoManager struct {
	users *fakeUsersRepo
	files *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users: &fakeUsersRepo{byEmail: map[string]*models.User{}},
		files: &fakeFilesRepo{byID: map[int64]*models.File{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository              { return m.files }

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	nextID  int64

	getErr    error
	createErr error
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	r.byEmail[u.Email] = &cp
	return &cp, nil
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeFilesRepo struct {
	byID   map[int64]*models.File
	nextID int64

	locked    []int64
	updated   int
	deleted   int
	createErr error
	updateErr error
	lastOrder files.Order
}

func (r *fakeFilesRepo) put(f models.File) *models.File {
	if f.ID == 0 {
		r.nextID++
		f.ID = r.nextID
	} else if f.ID > r.nextID {
		r.nextID = f.ID
	}
	r.byID[f.ID] = &f
	return &f
}

func (r *fakeFilesRepo) Create(_ context.Context, f *models.File) (*models.File, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	cp := *f
	cp.ID = 0
	out := *r.put(cp)
	return &out, nil
}

func (r *fakeFilesRepo) GetOwned(_ context.Context, owner, id int64) (*models.File, error) {
	f, ok := r.byID[id]
	if !ok || f.UserID != owner {
		return nil, common.ErrorNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFilesRepo) LockOwned(ctx context.Context, owner, id int64) (*models.File, error) {
	r.locked = append(r.locked, id)
	return r.GetOwned(ctx, owner, id)
}

func (r *fakeFilesRepo) ListByOwner(_ context.Context, owner int64, order files.Order) ([]*models.File, error) {
	r.lastOrder = order
	out := []*models.File{}
	for _, f := range r.byID {
		if f.UserID == owner {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order.Desc {
			a, b = b, a
		}
		switch order.Column {
		case files.ColumnName:
			return strings.Compare(a.Name, b.Name) < 0
		case files.ColumnCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeFilesRepo) Update(_ context.Context, f *models.File) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	cur, ok := r.byID[f.ID]
	if !ok || cur.UserID != f.UserID {
		return common.ErrorNotFound
	}
	r.updated++
	cp := *f
	r.byID[f.ID] = &cp
	return nil
}

func (r *fakeFilesRepo) Delete(_ context.Context, owner, id int64) error {
	f, ok := r.byID[id]
	if !ok || f.UserID != owner {
		return common.ErrorNotFound
	}
	r.deleted++
	delete(r.byID, id)
	return nil
}
