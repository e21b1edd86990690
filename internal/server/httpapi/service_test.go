package httpapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qInsertFile = `INSERT INTO files`
	qGetOwned   = `FROM files WHERE id = \$1 AND user_id = \$2$`
	qLockOwned  = `FROM files WHERE id = \$1 AND user_id = \$2 FOR UPDATE$`
	qListFiles  = `FROM files WHERE user_id = \$1 ORDER BY created_at DESC, id DESC$`
	qUpdateFile = `UPDATE files SET name = \$1, description = \$2, content = \$3, modified_at = \$4`
	qDeleteFile = `DELETE FROM files WHERE id = \$1 AND user_id = \$2`
)

var fileColumns = []string{"id", "name", "description", "content", "created_at", "modified_at", "user_id"}

// newServiceAPI serves the real FileService over the postgres repositories,
// with SQL answered by sqlmock.
func newServiceAPI(t *testing.T) (*apiClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fs := services.NewFileService(db, repomanager.NewPostgresRepositoryManager())
	h := newTestServer(newFakeUsers(), fs).Handler()
	return &apiClient{t: t, h: h, token: "token-1"}, mock
}

func fileRow(id int64, name, body string, at time.Time, owner int64) *sqlmock.Rows {
	return sqlmock.NewRows(fileColumns).AddRow(id, name, "", body, at, at, owner)
}

func TestFileService_OverHTTP(t *testing.T) {
	c, mock := newServiceAPI(t)
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	other := &apiClient{t: t, h: c.h, token: "token-2"}

	// create normalizes structured content before it reaches the store
	mock.ExpectBegin()
	mock.ExpectQuery(qInsertFile).
		WithArgs("Budget", "", `{"a":[1,2]}`, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	rec := c.do(http.MethodPost, "/api/files", `{"name":"Budget","content":{"a":[1,2]}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[fileResponse](t, rec)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, `{"a":[1,2]}`, created.Content)
	assert.Equal(t, created.CreatedDate, created.ModifiedDate)

	// another user cannot see it
	mock.ExpectBegin()
	mock.ExpectQuery(qGetOwned).WithArgs(int64(7), int64(2)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec = other.do(http.MethodGet, "/api/files/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"File not found"}`, rec.Body.String())

	// a malformed update from a non-owner is still a miss
	mock.ExpectBegin()
	mock.ExpectQuery(qGetOwned).WithArgs(int64(7), int64(2)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	assert.Equal(t, http.StatusNotFound, other.do(http.MethodPut, "/api/files/7", `{"name":5}`).Code)

	// the owner's update keeps string content verbatim
	mock.ExpectBegin()
	mock.ExpectQuery(qLockOwned).WithArgs(int64(7), int64(1)).
		WillReturnRows(fileRow(7, "Budget", `{"a":[1,2]}`, at, 1))
	mock.ExpectExec(qUpdateFile).
		WithArgs("Q1", "", `[1, 2]`, sqlmock.AnyArg(), int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec = c.do(http.MethodPut, "/api/files/7", `{"name":"Q1","content":"[1, 2]"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[fileResponse](t, rec)
	assert.Equal(t, "Q1", updated.Name)
	assert.Equal(t, `[1, 2]`, updated.Content)
	assert.Equal(t, at.Format(time.RFC3339Nano), updated.CreatedDate)

	// an over-long name is rejected without writing
	mock.ExpectBegin()
	mock.ExpectQuery(qLockOwned).WithArgs(int64(7), int64(1)).
		WillReturnRows(fileRow(7, "Q1", `[1, 2]`, at, 1))
	mock.ExpectRollback()

	long := strings.Repeat("n", services.MaxNameLength+1)
	rec = c.do(http.MethodPut, "/api/files/7", fmt.Sprintf(`{"name":%q}`, long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"msg":"File name must be at most 120 characters"}`, rec.Body.String())

	// content that is not JSON is unprocessable
	mock.ExpectBegin()
	mock.ExpectQuery(qLockOwned).WithArgs(int64(7), int64(1)).
		WillReturnRows(fileRow(7, "Q1", `[1, 2]`, at, 1))
	mock.ExpectRollback()

	rec = c.do(http.MethodPut, "/api/files/7", `{"content":"{oops"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// listing passes the sort through to SQL
	mock.ExpectBegin()
	mock.ExpectQuery(qListFiles).WithArgs(int64(1)).
		WillReturnRows(fileRow(7, "Q1", `[1, 2]`, at, 1))
	mock.ExpectCommit()

	rec = c.do(http.MethodGet, "/api/files?sort_field=date&sort_order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[[]fileResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Q1", list[0].Name)

	// delete locks, removes and commits
	mock.ExpectBegin()
	mock.ExpectQuery(qLockOwned).WithArgs(int64(7), int64(1)).
		WillReturnRows(fileRow(7, "Q1", `[1, 2]`, at, 1))
	mock.ExpectExec(qDeleteFile).WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec = c.do(http.MethodDelete, "/api/files/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"File deleted"}`, rec.Body.String())

	require.NoError(t, mock.ExpectationsWereMet())
}
