// Package cli implements sheetctl, a command-line front end for the
// SheetKeeper API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sheetkeeper/internal/client/api"
)

// API is the part of api.Client the commands use.
type API interface {
	SetToken(token string)
	Signup(ctx context.Context, email, password string) (*api.Session, error)
	Login(ctx context.Context, email, password string) (*api.Session, error)
	Ping(ctx context.Context) error
	ListFiles(ctx context.Context, sortField, sortOrder string) ([]api.File, error)
	GetFile(ctx context.Context, id int64) (*api.File, error)
	CreateFile(ctx context.Context, fields api.FileFields) (*api.File, error)
	UpdateFile(ctx context.Context, id int64, fields api.FileFields) (*api.File, error)
	DeleteFile(ctx context.Context, id int64) error
}

// SessionStore keeps the login between invocations.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	SaveLogin(ctx context.Context, token, email string) error
	Clear(ctx context.Context) error
}

var (
	ErrNotLoggedIn = errors.New("not logged in: run 'sheetctl login' or pass -t")
	ErrUsage       = errors.New("invalid usage, run 'sheetctl help'")
)

const usage = `Usage: sheetctl [-a url] [-t token] [-s session.db] [-c config.json] <command> [args]

Commands:
  signup [-e email]                 create an account and log in
  login [-e email]                  log in
  logout                            forget the saved login
  ping                              check the server is reachable
  ls [-sort name|date] [-order asc|desc]
  show <id>                         print a file and its content
  new -name N [-desc D] [-content JSON | -file path] [-string]
  edit <id> [-name N] [-desc D] [-content JSON | -file path] [-string]
  rm <id>                           delete a file
`

type App struct {
	api      API
	sessions SessionStore
	token    string
	in       *bufio.Reader
	out      io.Writer
}

// NewApp wires the commands. A non-empty token takes precedence over the
// saved session.
func NewApp(c API, s SessionStore, token string, in io.Reader, out io.Writer) *App {
	return &App{api: c, sessions: s, token: token, in: bufio.NewReader(in), out: out}
}

// Run executes the command in args (command name first).
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "signup", "register":
		return a.signup(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "ping":
		return a.ping(ctx)
	case "ls", "list":
		return a.list(ctx, rest)
	case "show", "get":
		return a.show(ctx, rest)
	case "new", "create":
		return a.create(ctx, rest)
	case "edit", "update":
		return a.edit(ctx, rest)
	case "rm", "delete":
		return a.remove(ctx, rest)
	}

	fmt.Fprintln(a.out, "Unknown command:", cmd)
	return ErrUsage
}

// authorize loads the access token into the API client.
func (a *App) authorize(ctx context.Context) error {
	token := a.token
	if token == "" {
		t, err := a.sessions.Token(ctx)
		if err != nil {
			return err
		}
		token = t
	}
	if token == "" {
		return ErrNotLoggedIn
	}
	a.api.SetToken(token)
	return nil
}
