package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/client/api"
)

// getPassword is a seam for tests.
var getPassword = GetPassword

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) credentials(name string, args []string) (string, string, error) {
	fs := a.newFlagSet(name)
	email := fs.String("e", "", "email")
	if err := fs.Parse(args); err != nil {
		return "", "", ErrUsage
	}

	if *email == "" {
		v, err := GetSimpleText(a.in, "Email", a.out)
		if err != nil {
			return "", "", err
		}
		*email = v
	}

	pw, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	return *email, pw, nil
}

func (a *App) signup(ctx context.Context, args []string) error {
	email, pw, err := a.credentials("signup", args)
	if err != nil {
		return err
	}

	s, err := a.api.Signup(ctx, email, pw)
	if err != nil {
		return err
	}
	if err := a.sessions.SaveLogin(ctx, s.Token, s.User.Email); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered and logged in as %s\n", s.User.Email)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, pw, err := a.credentials("login", args)
	if err != nil {
		return err
	}

	s, err := a.api.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	if err := a.sessions.SaveLogin(ctx, s.Token, s.User.Email); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.Email)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := a.newFlagSet("ls")
	sortField := fs.String("sort", "", "sort field: name or date")
	sortOrder := fs.String("order", "", "sort order: asc or desc")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	if err := a.authorize(ctx); err != nil {
		return err
	}

	files, err := a.api.ListFiles(ctx, *sortField, *sortOrder)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODIFIED\tDESCRIPTION")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.Name, f.ModifiedDate.Local().Format(time.DateTime), f.Description)
	}
	return tw.Flush()
}

func (a *App) show(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.authorize(ctx); err != nil {
		return err
	}

	f, err := a.api.GetFile(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ID:          %d\n", f.ID)
	fmt.Fprintf(a.out, "Name:        %s\n", f.Name)
	fmt.Fprintf(a.out, "Description: %s\n", f.Description)
	fmt.Fprintf(a.out, "Created:     %s\n", f.CreatedDate.Local().Format(time.DateTime))
	fmt.Fprintf(a.out, "Modified:    %s\n", f.ModifiedDate.Local().Format(time.DateTime))
	fmt.Fprintln(a.out, f.Content)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	fields, err := a.fileFields("new", args)
	if err != nil {
		return err
	}
	if fields.Name == nil {
		return fmt.Errorf("%w: -name is required", ErrUsage)
	}
	if err := a.authorize(ctx); err != nil {
		return err
	}

	f, err := a.api.CreateFile(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created file %d\n", f.ID)
	return nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	id, rest, err := parseID(args)
	if err != nil {
		return err
	}
	fields, err := a.fileFields("edit", rest)
	if err != nil {
		return err
	}
	if err := a.authorize(ctx); err != nil {
		return err
	}

	f, err := a.api.UpdateFile(ctx, id, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated file %d\n", f.ID)
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.authorize(ctx); err != nil {
		return err
	}

	if err := a.api.DeleteFile(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted file %d\n", id)
	return nil
}

// --- helpers below ---

// fileFields parses -name, -desc, -content, -file and -string. Only flags
// given on the command line end up in the request. With -string the content
// is sent as a JSON string, which the server stores byte for byte.
func (a *App) fileFields(name string, args []string) (api.FileFields, error) {
	fs := a.newFlagSet(name)
	fileName := fs.String("name", "", "file name")
	desc := fs.String("desc", "", "description")
	body := fs.String("content", "", "content as JSON")
	path := fs.String("file", "", "read content from path")
	asString := fs.Bool("string", false, "send content as pre-serialized JSON text")
	if err := fs.Parse(args); err != nil {
		return api.FileFields{}, ErrUsage
	}

	var out api.FileFields
	var hasContent bool
	var text string
	var err error

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			out.Name = fileName
		case "desc":
			out.Description = desc
		case "content":
			hasContent, text = true, *body
		}
	})

	if *path != "" {
		if hasContent {
			return api.FileFields{}, fmt.Errorf("%w: -content and -file are exclusive", ErrUsage)
		}
		b, rerr := os.ReadFile(*path)
		if rerr != nil {
			return api.FileFields{}, rerr
		}
		hasContent, text = true, string(b)
	}

	if hasContent {
		out.Content, err = encodeContent(text, *asString)
		if err != nil {
			return api.FileFields{}, err
		}
	}
	return out, nil
}

func encodeContent(text string, asString bool) (json.RawMessage, error) {
	if asString {
		b, err := json.Marshal(text)
		return json.RawMessage(b), err
	}
	if !json.Valid([]byte(text)) {
		return nil, errors.New("content is not valid JSON")
	}
	return json.RawMessage(text), nil
}

func parseID(args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("%w: file id is required", ErrUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, fmt.Errorf("%w: bad file id %q", ErrUsage, args[0])
	}
	return id, args[1:], nil
}
