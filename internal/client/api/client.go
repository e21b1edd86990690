// Package api is a Go client for the SheetKeeper HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
)

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type File struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Content      string    `json:"content"`
	CreatedDate  time.Time `json:"created_date"`
	ModifiedDate time.Time `json:"modified_date"`
	UserID       int64     `json:"user_id"`
}

// FileFields is a create or update body. Nil fields are left out of the
// request; Content is sent as-is, so a JSON string literal is stored verbatim
// by the server and any other JSON value is re-encoded.
type FileFields struct {
	Name        *string
	Description *string
	Content     json.RawMessage
}

func (f FileFields) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 3)
	if f.Name != nil {
		m["name"] = *f.Name
	}
	if f.Description != nil {
		m["description"] = *f.Description
	}
	if f.Content != nil {
		m["content"] = f.Content
	}
	return json.Marshal(m)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a Client for the server at baseURL (e.g. "http://127.0.0.1:3001").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with file requests.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

// Signup registers a user and keeps the returned token.
func (c *Client) Signup(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/signup", email, password)
}

// Login signs in and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
}

// ListFiles returns the caller's files. Empty sortField or sortOrder use the
// server defaults.
func (c *Client) ListFiles(ctx context.Context, sortField, sortOrder string) ([]File, error) {
	q := url.Values{}
	if sortField != "" {
		q.Set("sort_field", sortField)
	}
	if sortOrder != "" {
		q.Set("sort_order", sortOrder)
	}
	path := "/api/files"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []File
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFile(ctx context.Context, id int64) (*File, error) {
	var f File
	if err := c.do(ctx, http.MethodGet, filePath(id), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) CreateFile(ctx context.Context, fields FileFields) (*File, error) {
	var f File
	if err := c.do(ctx, http.MethodPost, "/api/files", fields, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) UpdateFile(ctx context.Context, id int64, fields FileFields) (*File, error) {
	var f File
	if err := c.do(ctx, http.MethodPut, filePath(id), fields, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) DeleteFile(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, filePath(id), nil, nil)
}

func filePath(id int64) string {
	return "/api/files/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
