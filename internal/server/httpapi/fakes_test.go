package httpapi

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/content"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
)

// fakeUsers issues tokens of the form "token-<id>".
type fakeUsers struct {
	byEmail map[string]*models.User
	pw      map[string]string
	nextID  int64
	err     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}, pw: map[string]string{}}
}

func (f *fakeUsers) Register(_ context.Context, email, password string) (*services.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if email == "" {
		return nil, common.Invalid("Email is required")
	}
	if password == "" {
		return nil, common.Invalid("Password is required")
	}
	if _, ok := f.byEmail[email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	u := &models.User{ID: f.nextID, Email: email, PasswordHash: "hash:" + password, IsActive: true}
	f.byEmail[email] = u
	f.pw[email] = password
	return &services.Session{Token: fmt.Sprintf("token-%d", u.ID), User: u}, nil
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*services.Session, error) {
	u, ok := f.byEmail[email]
	if !ok || f.pw[email] != password {
		return nil, common.ErrorUnauthorized
	}
	return &services.Session{Token: fmt.Sprintf("token-%d", u.ID), User: u}, nil
}

func (f *fakeUsers) Authenticate(token string) (int64, error) {
	rest, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return 0, common.ErrInvalidToken
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

// fakeFiles keeps files in memory and applies the same field rules as
// services.FileService.
type fakeFiles struct {
	byID     map[int64]*models.File
	nextID   int64
	clock    time.Time
	lastOpts services.ListOptions
	err      error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		byID:  map[int64]*models.File{},
		clock: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeFiles) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeFiles) List(_ context.Context, owner int64, opts services.ListOptions) ([]*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastOpts = opts
	out := []*models.File{}
	for _, file := range f.byID {
		if file.UserID == owner {
			cp := *file
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if opts.SortOrder != services.SortOrderAsc {
			a, b = b, a
		}
		switch opts.SortField {
		case services.SortFieldName:
			return a.Name < b.Name
		case services.SortFieldDate:
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeFiles) Create(_ context.Context, owner int64, in services.NewFile) (*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	if in.Name == nil || *in.Name == "" {
		return nil, common.Invalid("File name is required")
	}
	body := content.Default
	if in.Content != nil {
		c, err := content.Normalize(*in.Content)
		if err != nil {
			return nil, err
		}
		body = c
	}
	now := f.tick()
	f.nextID++
	file := &models.File{ID: f.nextID, Name: *in.Name, Content: body, CreatedAt: now, ModifiedAt: now, UserID: owner}
	if in.Description != nil {
		file.Description = *in.Description
	}
	f.byID[file.ID] = file
	cp := *file
	return &cp, nil
}

func (f *fakeFiles) owned(owner, id int64) (*models.File, error) {
	file, ok := f.byID[id]
	if !ok || file.UserID != owner {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFiles) Get(_ context.Context, owner, id int64) (*models.File, error) {
	file, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFiles) Update(_ context.Context, owner, id int64, patch services.FilePatch) (*models.File, error) {
	file, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	next := *file
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, common.Invalid("File name cannot be empty")
		}
		next.Name = *patch.Name
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Content != nil {
		c, err := content.Normalize(*patch.Content)
		if err != nil {
			return nil, err
		}
		next.Content = c
	}
	next.ModifiedAt = f.tick()
	f.byID[id] = &next
	cp := next
	return &cp, nil
}

func (f *fakeFiles) Delete(_ context.Context, owner, id int64) error {
	if _, err := f.owned(owner, id); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}
