// Package restapi implements the service.Service interface over the family
// calendar REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"famcal/internal/config"
	"famcal/internal/scope"
	"famcal/internal/service"
)

const (
	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// DebugUserHeader authenticates as a user id on development backends.
	DebugUserHeader = "X-Debug-User-Id"

	// RequestIDHeader carries a per-request id for server-side tracing.
	RequestIDHeader = "X-Request-Id"
)

// Client implements service.Service using the calendar REST API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each API call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client from config. A stored token is sent as a bearer
// token; without one, cfg.DebugUser is sent in the debug header. With
// neither the user is not logged in.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	var httpClient *http.Client
	token, err := cfg.LoadToken()
	switch {
	case err == nil:
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	case cfg.DebugUser != "":
		httpClient = &http.Client{Transport: &debugUserTransport{user: cfg.DebugUser}}
	case !cfg.HasToken():
		return nil, fmt.Errorf("%w: no token in %s", service.ErrUnauthorized, cfg.Dir)
	default:
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
	}

	return NewWithHTTPClient(cfg.APIURL, httpClient, WithTimeout(cfg.Timeout), WithLogger(cfg.Log()))
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api url: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		base:    base,
		http:    httpClient,
		timeout: APITimeout,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Verify exchanges Telegram web app init data for a session token.
func Verify(ctx context.Context, baseURL, initData string, opts ...Option) (*oauth2.Token, error) {
	c, err := NewWithHTTPClient(baseURL, nil, opts...)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/verify", nil, map[string]string{"init_data": initData}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: empty token in response", service.ErrUnauthorized)
	}
	return &oauth2.Token{AccessToken: resp.Token, TokenType: "Bearer"}, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	var u service.User
	err := c.do(ctx, http.MethodGet, "/me", nil, nil, &u)
	return u, err
}

// ListTasks returns the tasks of one scope inside the query window.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	if err := q.Scope.Validate(); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("start", q.Start)
	query.Set("end", q.End)
	if q.Scope.IsPersonal() {
		query.Set("scope", string(scope.KindPersonal))
	} else {
		query.Set("scope", string(scope.KindFamily))
		query.Set("family_id", q.Scope.FamilyID.String())
	}

	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, p service.TaskPayload) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodPost, "/tasks", nil, p, &t)
	return t, err
}

// MoveTask changes a task's date.
func (c *Client) MoveTask(ctx context.Context, id int64, date string) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodPatch, "/tasks/"+itoa(id), nil, map[string]string{"date": date}, &t)
	return t, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+itoa(id), nil, nil, nil)
}

// ListGroups returns the user's groups in API order.
func (c *Client) ListGroups(ctx context.Context) ([]service.Group, error) {
	var groups []service.Group
	if err := c.do(ctx, http.MethodGet, "/families", nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group owned by the user.
func (c *Client) CreateGroup(ctx context.Context, name string) (service.Group, error) {
	var g service.Group
	err := c.do(ctx, http.MethodPost, "/families", nil, map[string]string{"name": name}, &g)
	return g, err
}

// JoinGroup joins a group by invite code.
func (c *Client) JoinGroup(ctx context.Context, inviteCode string) error {
	return c.do(ctx, http.MethodPost, "/families/join", nil, map[string]string{"invite_code": inviteCode}, nil)
}

// LeaveGroup leaves a group.
func (c *Client) LeaveGroup(ctx context.Context, id scope.FamilyID) error {
	return c.do(ctx, http.MethodDelete, "/families/"+id.String()+"/leave", nil, nil, nil)
}

// ListMembers returns a group's members.
func (c *Client) ListMembers(ctx context.Context, id scope.FamilyID) ([]service.Member, error) {
	var members []service.Member
	if err := c.do(ctx, http.MethodGet, memberPath(id), nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// BlockMember blocks a member.
func (c *Client) BlockMember(ctx context.Context, id scope.FamilyID, userID int64) error {
	return c.do(ctx, http.MethodPost, memberPath(id, userID)+"/block", nil, nil, nil)
}

// UnblockMember unblocks a member.
func (c *Client) UnblockMember(ctx context.Context, id scope.FamilyID, userID int64) error {
	return c.do(ctx, http.MethodPost, memberPath(id, userID)+"/unblock", nil, nil, nil)
}

// RemoveMember removes a member from a group.
func (c *Client) RemoveMember(ctx context.Context, id scope.FamilyID, userID int64) error {
	return c.do(ctx, http.MethodDelete, memberPath(id, userID), nil, nil, nil)
}

func memberPath(id scope.FamilyID, userID ...int64) string {
	p := "/families/" + id.String() + "/members"
	for _, u := range userID {
		p += "/" + itoa(u)
	}
	return p
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// do sends one JSON request. in is encoded as the body when non-nil; out
// receives the decoded response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", method, "path", u.Path, "request_id", reqID, "error", err)
		return wrapError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request", "method", method, "path", u.Path, "request_id", reqID,
		"status", resp.StatusCode, "duration", time.Since(start))

	if err := googleapi.CheckResponse(resp); err != nil {
		return wrapError(err)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// debugUserTransport authenticates by user id on development backends.
type debugUserTransport struct {
	user string
	base http.RoundTripper
}

func (t *debugUserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	r.Header.Set(DebugUserHeader, t.user)
	return base.RoundTrip(r)
}
