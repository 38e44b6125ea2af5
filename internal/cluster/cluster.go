// Package cluster is the HTTP transport to a Data Intelligence cluster.
//
// A Cluster keeps a cookie-based session after Login. Every request carries
// the JSON and X-Requested-With headers the cluster expects. Any HTTP status
// is returned as a Response; only transport failures are errors.
//
// A Cluster is not safe for concurrent use.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// LoginPath is the path of the login endpoint.
const LoginPath = "/api/login/v2/finalize"

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// API is the request surface the service clients are built on.
type API interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, body []byte) (*Response, error)
	Put(ctx context.Context, path string, body []byte) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// Response is a complete HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// Option configures a Cluster.
type Option func(*Cluster)

// WithDoer replaces the HTTP client. Tests use it to replay responses.
func WithDoer(d Doer) Option {
	return func(c *Cluster) { c.doer = d }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Cluster) { c.timeout = d }
}

// WithLogger sets the logger. Requests are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cluster) { c.logger = l }
}

// Cluster is a session with one cluster.
type Cluster struct {
	data     ConnectionData
	doer     Doer
	timeout  time.Duration
	logger   *slog.Logger
	loggedIn bool
}

// New validates the connection data and prepares a session. It does not log in.
func New(data ConnectionData, opts ...Option) (*Cluster, error) {
	base, err := NormalizeBaseURL(data.BaseURL)
	if err != nil {
		return nil, err
	}
	data.BaseURL = base

	c := &Cluster{
		data:    data,
		timeout: 60 * time.Second,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.doer = &http.Client{Jar: jar, Timeout: c.timeout}
	}
	return c, nil
}

// Connect creates a session and logs in.
func Connect(ctx context.Context, data ConnectionData, opts ...Option) (*Cluster, error) {
	c, err := New(data, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Cluster) BaseURL() string {
	return c.data.BaseURL
}

// LoggedIn reports whether Login succeeded.
func (c *Cluster) LoggedIn() bool {
	return c.loggedIn
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Tenant   string `json:"tenant"`
}

// Login authenticates the session. Any status other than 200 is a *LoginError.
func (c *Cluster) Login(ctx context.Context) error {
	body, err := json.Marshal(loginBody{
		Username: c.data.User,
		Password: c.data.Password,
		Tenant:   c.data.Tenant,
	})
	if err != nil {
		return fmt.Errorf("encode login: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, LoginPath, body)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.data.BaseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &LoginError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	c.loggedIn = true
	c.logger.Info("logged in", "cluster", c.data.Name, "url", c.data.BaseURL, "tenant", c.data.Tenant)
	return nil
}

func (c *Cluster) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Cluster) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Cluster) Put(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Cluster) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Cluster) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.data.BaseURL+path, reader)
	if err != nil {
		return nil, &APIError{Message: "invalid request", Original: err, Status: URLParseError}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "Fetch")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, handleHTTPError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, handleHTTPError(err)
	}

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode)
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
