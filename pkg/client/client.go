// Package client HTTP client of the note service
// Package client 笔记服务的 HTTP 客户端
//
// Client implements reconcile.Remote, so a reconcile.Session can run against a live server.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/block-note-service/pkg/notepath"
	"github.com/haierkeys/block-note-service/pkg/reconcile"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// DefaultTimeout request timeout of the default http client
const DefaultTimeout = 30 * time.Second

// APIError a non-2xx answer, decoded from the error envelope
// APIError 非 2xx 响应
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	TraceID    string `json:"traceId"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("note service: %d %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("note service: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given http status
func IsStatus(err error, status int) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == status
}

// LoginResult // 登录结果
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient // 自定义 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken starts the client with a bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLang sends the lang header so messages come back in that language
func WithLang(lang string) Option {
	return func(c *Client) {
		c.lang = lang
	}
}

// Client talks to the /api routes of the note service
type Client struct {
	base string
	http *http.Client
	lang string

	mu    sync.RWMutex
	token string
}

var _ reconcile.Remote = (*Client)(nil)

// New creates a client for baseURL, e.g. http://127.0.0.1:9000
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// notePath builds /api/notes/<escaped segments>
func notePath(path string) (string, error) {
	p, err := notepath.Normalize(path)
	if err != nil {
		return "", err
	}
	segs := p.Segments()
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/api/notes/" + strings.Join(segs, "/"), nil
}

// do sends body as JSON and decodes a 2xx answer into out
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.lang != "" {
		req.Header.Set("lang", c.lang)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if len(data) > 0 && sonic.Unmarshal(data, apiErr) == nil && apiErr.Message != "" {
			return apiErr
		}
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return sonic.Unmarshal(data, out)
}

// Register POST /api/register
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"password": password,
	}, nil)
}

// Login POST /api/login, keeps the returned token for later calls
// Login 登录并保存令牌
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// GetNote GET /api/notes/{path}
func (c *Client) GetNote(ctx context.Context, path string) (*reconcile.Note, error) {
	p, err := notePath(path)
	if err != nil {
		return nil, err
	}
	var n reconcile.Note
	if err := c.do(ctx, http.MethodGet, p, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote PUT /api/notes/{path}
func (c *Client) UpdateNote(ctx context.Context, path string, update reconcile.NoteUpdate) (*reconcile.Note, error) {
	p, err := notePath(path)
	if err != nil {
		return nil, err
	}
	var n reconcile.Note
	if err := c.do(ctx, http.MethodPut, p, update, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNote POST /api/notes
func (c *Client) CreateNote(ctx context.Context, create reconcile.NoteCreate) (*reconcile.Note, error) {
	var n reconcile.Note
	if err := c.do(ctx, http.MethodPost, "/api/notes", create, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNote DELETE /api/notes/{path}
func (c *Client) DeleteNote(ctx context.Context, path string) error {
	p, err := notePath(path)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, p, nil, nil)
}

// ListNotes GET /api/notes
func (c *Client) ListNotes(ctx context.Context) ([]reconcile.NoteSummary, error) {
	out := []reconcile.NoteSummary{}
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchNotes GET /api/notes/search?q=
func (c *Client) SearchNotes(ctx context.Context, q string) ([]reconcile.SearchHit, error) {
	out := []reconcile.SearchHit{}
	if err := c.do(ctx, http.MethodGet, "/api/notes/search?q="+url.QueryEscape(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserCount GET /api/users/count
func (c *Client) UserCount(ctx context.Context) (int64, error) {
	var res struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/count", nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}
