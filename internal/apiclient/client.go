// Package apiclient talks to the task server's REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every request
const DefaultTimeout = 10 * time.Second

// ErrNoData is returned when a successful response carries no data
var ErrNoData = errors.New("response has no data")

// APIError is a non-success response from the server
type APIError struct {
	StatusCode int
	Code       int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Msg)
}

// IsStatus reports whether err is an APIError with the given HTTP status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Client is a REST client for the task server
type Client struct {
	baseURL    string
	authed     *http.Client
	anon       *http.Client
	sharedUser string
}

// Option configures a Client
type Option func(*Client)

// WithSharedUser sends X-User-ID instead of a bearer token. The server must
// run in shared mode.
func WithSharedUser(userID string) Option {
	return func(c *Client) {
		c.sharedUser = userID
	}
}

// WithHTTPClient replaces the transport used for unauthenticated calls and
// as the base of authenticated ones
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.anon = hc
	}
}

// New creates a client. tokens supplies the bearer token for task calls.
func New(baseURL string, tokens oauth2.TokenSource, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anon:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.anon.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if c.sharedUser != "" || tokens == nil {
		c.authed = c.anon
	} else {
		c.authed = &http.Client{
			Timeout:   c.anon.Timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: base},
		}
	}
	return c
}

// BaseURL returns the server root the client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sharedUser != "" {
		req.Header.Set("X-User-ID", c.sharedUser)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return &APIError{StatusCode: resp.StatusCode, Msg: strings.TrimSpace(string(raw))}
			}
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 || (env.Code != 0 && env.Code != http.StatusOK && env.Code != http.StatusCreated) {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func taskPath(id int64, suffix string) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10) + suffix
}

// ListTasks returns every task visible to the caller, newest first
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	// an empty account is [], never null
	if tasks == nil {
		return nil, fmt.Errorf("GET /api/tasks: %w", ErrNoData)
	}
	return tasks, nil
}

// CreateTask creates a task; the server assigns the id
func (c *Client) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	t.ID = 0
	var created models.Task
	if err := c.do(ctx, c.authed, http.MethodPost, "/api/tasks", t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask replaces the editable fields of task id
func (c *Client) UpdateTask(ctx context.Context, id int64, t models.Task) (*models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, c.authed, http.MethodPut, taskPath(id, ""), t, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetCompleted sets the completion flag of task id
func (c *Client) SetCompleted(ctx context.Context, id int64, done bool) error {
	flag := 0
	if done {
		flag = 1
	}
	return c.do(ctx, c.authed, http.MethodPut, taskPath(id, "/complete"), map[string]int{"is_completed": flag}, nil)
}

// SetFocusTime records accumulated focus seconds on task id
func (c *Client) SetFocusTime(ctx context.Context, id int64, seconds int) (*models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, c.authed, http.MethodPut, taskPath(id, "/focus-time"), map[string]int{"focus_time": seconds}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask deletes task id. The server keeps a copy in its recycle bin.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, c.authed, http.MethodDelete, taskPath(id, ""), nil, nil)
}

// ClearCompleted deletes every completed task and returns how many went
func (c *Client) ClearCompleted(ctx context.Context) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, c.authed, http.MethodDelete, "/api/tasks/completed/clear", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// RecycleBin lists the server-side recycle bin
func (c *Client) RecycleBin(ctx context.Context) ([]models.RecycleBinEntry, error) {
	var entries []models.RecycleBinEntry
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/recycle-bin", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RestoreRecycled restores a server recycle bin entry as a new task
func (c *Client) RestoreRecycled(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var restored models.Task
	if err := c.do(ctx, c.authed, http.MethodPost, "/api/recycle-bin/"+url.PathEscape(id.String())+"/restore", nil, &restored); err != nil {
		return nil, err
	}
	return &restored, nil
}

// PurgeRecycled permanently deletes one server recycle bin entry
func (c *Client) PurgeRecycled(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/api/recycle-bin/"+url.PathEscape(id.String()), nil, nil)
}

// ClearRecycleBin empties the server recycle bin
func (c *Client) ClearRecycleBin(ctx context.Context) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/api/recycle-bin/clear", nil, nil)
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register creates an account and returns its first token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.do(ctx, c.anon, http.MethodPost, "/api/auth/register", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var res models.AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, c.anon, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Me returns the account behind the current token
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Health checks that the server is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, c.anon, http.MethodGet, "/api/health", nil, nil)
}
