// Package httpapi exposes the user and file services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

// UserService is the part of services.UserService the API needs.
type UserService interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Authenticate(token string) (int64, error)
}

// FileService is the part of services.FileService the API needs.
type FileService interface {
	List(ctx context.Context, owner int64, opts services.ListOptions) ([]*models.File, error)
	Create(ctx context.Context, owner int64, in services.NewFile) (*models.File, error)
	Get(ctx context.Context, owner, id int64) (*models.File, error)
	Update(ctx context.Context, owner, id int64, patch services.FilePatch) (*models.File, error)
	Delete(ctx context.Context, owner, id int64) error
}

// Options are the transport settings of a Server.
type Options struct {
	Address            string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
}

type Server struct {
	opts   Options
	users  UserService
	files  FileService
	logger logging.Logger
}

func NewServer(opts Options, l logging.Logger, us UserService, fs FileService) *Server {
	return &Server{
		opts:   opts,
		logger: l.With("module", "http_server"),
		users:  us,
		files:  fs,
	}
}

// Handler builds the routing tree. Every request passes through CORS and
// request logging; /api/files requires a bearer token.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	setFallbacks(r)

	api := r.PathPrefix("/api").Subrouter()
	setFallbacks(api)
	api.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/ping", s.ping).Methods(http.MethodGet)

	files := api.PathPrefix("/files").Subrouter()
	setFallbacks(files)
	files.Use(s.requireAuth)
	files.HandleFunc("", s.listFiles).Methods(http.MethodGet)
	files.HandleFunc("", s.createFile).Methods(http.MethodPost)
	files.HandleFunc("/{id:[0-9]+}", s.getFile).Methods(http.MethodGet)
	files.HandleFunc("/{id:[0-9]+}", s.updateFile).Methods(http.MethodPut)
	files.HandleFunc("/{id:[0-9]+}", s.deleteFile).Methods(http.MethodDelete)

	// outside the router so preflights and unmatched routes are covered too
	return s.logRequests(s.cors(r))
}

// setFallbacks installs the JSON 404 and 405 handlers. A subrouter without
// its own handlers reports a method mismatch as not found.
func setFallbacks(r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
