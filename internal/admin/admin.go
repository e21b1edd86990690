// Package admin implements the maintenance commands run against the server
// database outside of the HTTP API.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"golang.org/x/term"
)

const (
	CmdCreateAdmin     = "create-admin"
	CmdInsertTestUsers = "insert-test-users"

	DefaultAdminEmail = "admin@example.com"
)

// ErrUsage is returned for unknown commands and bad arguments.
var ErrUsage = errors.New("usage: [config flags] create-admin [-email E] [-password P] | insert-test-users N")

// UserCreator is the part of services.UserService the commands need.
type UserCreator interface {
	CreateUser(ctx context.Context, email, password string, active bool) (*models.User, error)
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type Commands struct {
	users UserCreator
	out   io.Writer
}

func NewCommands(users UserCreator, out io.Writer) *Commands {
	return &Commands{users: users, out: out}
}

// SplitCommand finds the first known command name in args and returns it
// with the arguments that follow it. Anything before it belongs to config.
func SplitCommand(args []string) (string, []string, bool) {
	for i, a := range args {
		if a == CmdCreateAdmin || a == CmdInsertTestUsers {
			return a, args[i+1:], true
		}
	}
	return "", nil, false
}

// Run executes the command found in args.
func (c *Commands) Run(ctx context.Context, args []string) error {
	cmd, rest, ok := SplitCommand(args)
	if !ok {
		return ErrUsage
	}

	switch cmd {
	case CmdCreateAdmin:
		return c.createAdmin(ctx, rest)
	case CmdInsertTestUsers:
		return c.insertTestUsers(ctx, rest)
	}
	return ErrUsage
}

func (c *Commands) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(CmdCreateAdmin, flag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", DefaultAdminEmail, "admin email")
	password := fs.String("password", "", "admin password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(c.out, "Enter password: ")
		b, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		pw = string(b)
	}

	u, err := c.users.CreateUser(ctx, *email, pw, true)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintln(c.out, "Admin user created successfully!")
	fmt.Fprintf(c.out, "ID: %d\nEmail: %s\n", u.ID, u.Email)
	return nil
}

// insertTestUsers creates test_user1@test.com .. test_userN@test.com, all
// with common.DefaultTestPassword. Existing users are skipped so the command
// can be rerun.
func (c *Commands) insertTestUsers(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("%w: count must be a positive integer", ErrUsage)
	}

	fmt.Fprintln(c.out, "Creating test users")

	for i := 1; i <= n; i++ {
		email := fmt.Sprintf("test_user%d@test.com", i)

		_, err := c.users.CreateUser(ctx, email, common.DefaultTestPassword, true)
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			fmt.Fprintf(c.out, "%s already exists, skipped.\n", email)
		case err != nil:
			return fmt.Errorf("create %s: %w", email, err)
		default:
			fmt.Fprintf(c.out, "%s created.\n", email)
		}
	}

	fmt.Fprintln(c.out, "Users created successfully!")
	return nil
}
