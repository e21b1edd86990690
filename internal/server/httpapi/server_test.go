package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(us UserService, fs FileService) *Server {
	return NewServer(Options{
		Address:            "127.0.0.1:0",
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    time.Second,
	}, logging.Nop{}, us, fs)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := newTestServer(newFakeUsers(), newFakeFiles())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewServer(Options{Address: "127.0.0.1:99999"}, logging.Nop{}, newFakeUsers(), newFakeFiles())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.Error(t, srv.Run(ctx))
}

func TestHandler_UnknownRoute(t *testing.T) {
	h := newTestServer(newFakeUsers(), newFakeFiles()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Not found"}`, rec.Body.String())
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestServer(newFakeUsers(), newFakeFiles()).Handler()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/signup", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/login", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/ping", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/files", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/files/1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/files/abc", http.StatusNotFound},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusMethodNotAllowed {
				assert.JSONEq(t, `{"msg":"Method not allowed"}`, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"msg":"Not found"}`, rec.Body.String())
			}
		})
	}
}
