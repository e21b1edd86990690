// Package server assembles and runs the SheetKeeper API: it opens and
// migrates the database, builds the services and serves HTTP until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/config"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	httpServer  *httpapi.Server
	userService *services.UserService
	fileService *services.FileService
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenDatabase connects to the PostgreSQL database at dsn, checks the
// connection and applies pending migrations.
func OpenDatabase(ctx context.Context, dsn string, m repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewLogger builds the process logger described by c.
func NewLogger(c *config.Config) (logging.Logger, error) {
	return logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Output:  os.Stdout,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := NewLogger(c)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	db, err := OpenDatabase(ctx, c.DatabaseDSN, rm)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	fs := services.NewFileService(db, rm)

	hs := httpapi.NewServer(httpapi.Options{
		Address:            c.EndpointAddrHTTP,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		ReadTimeout:        c.ReadTimeout,
		WriteTimeout:       c.WriteTimeout,
		ShutdownTimeout:    c.ShutdownTimeout,
	}, logger, us, fs)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		httpServer:  hs,
		userService: us,
		fileService: fs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then closes the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.httpServer.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close failed", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
