package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/testutil"
)

func dummyConnectionData() ConnectionData {
	return ConnectionData{
		Name:     "POD-INT",
		BaseURL:  "https://cluster",
		Tenant:   "default",
		User:     "tester",
		Password: "********",
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "https://vsystem.ingress.example.com", "https://vsystem.ingress.example.com"},
		{"trailing slash", "https://vsystem.ingress.example.com/", "https://vsystem.ingress.example.com"},
		{"path query fragment", "https://foo/and/some/path?and=query&information#withFragment", "https://foo"},
		{"port kept", "https://foo:8443/x", "https://foo:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeBaseURLRejects(t *testing.T) {
	for _, raw := range []string{"bar", "https://", "https:// ", "http://bar.com", "https://abc.com:df/"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NormalizeBaseURL(raw)
			assert.ErrorIs(t, err, ErrInvalidBaseURL)
		})
	}
}

func TestSetBaseURL(t *testing.T) {
	var d ConnectionData
	require.NoError(t, d.SetBaseURL("https://foo/bar"))
	assert.Equal(t, "https://foo", d.BaseURL)

	assert.Error(t, d.SetBaseURL("http://foo"))
	assert.Equal(t, "https://foo", d.BaseURL)
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	data := dummyConnectionData()
	data.BaseURL = "http://insecure"
	_, err := New(data)
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestLogin(t *testing.T) {
	doer := testutil.NewFakeDoer().Respond(http.StatusOK, "")
	c, err := New(dummyConnectionData(), WithDoer(doer))
	require.NoError(t, err)
	assert.False(t, c.LoggedIn())

	require.NoError(t, c.Login(context.Background()))
	assert.True(t, c.LoggedIn())

	last := doer.Last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "https://cluster/api/login/v2/finalize", last.URL)

	var body map[string]string
	require.NoError(t, json.Unmarshal(last.Body, &body))
	assert.Equal(t, map[string]string{"username": "tester", "password": "********", "tenant": "default"}, body)
}

func TestLoginRejected(t *testing.T) {
	doer := testutil.NewFakeDoer().Respond(http.StatusUnauthorized, "nope")
	_, err := Connect(context.Background(), dummyConnectionData(), WithDoer(doer))

	var loginErr *LoginError
	require.True(t, errors.As(err, &loginErr))
	assert.Equal(t, http.StatusUnauthorized, loginErr.StatusCode)
	assert.Equal(t, "nope", loginErr.Body)
}

func TestLoginTransportFailure(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	doer := testutil.NewFakeDoer().Fail(opErr)
	c, err := New(dummyConnectionData(), WithDoer(doer))
	require.NoError(t, err)

	err = c.Login(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ConnectionError, apiErr.Status)
	assert.False(t, c.LoggedIn())
}

func TestRequestsCarryHeaders(t *testing.T) {
	doer := testutil.NewFakeDoer().
		Respond(http.StatusOK, `{"a":1}`).
		Respond(http.StatusCreated, "").
		Respond(http.StatusAccepted, "").
		Respond(http.StatusNotFound, "missing")
	c, err := New(dummyConnectionData(), WithDoer(doer))
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := c.Get(ctx, "/path")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	var v map[string]int
	require.NoError(t, resp.DecodeJSON(&v))
	assert.Equal(t, 1, v["a"])

	_, err = c.Post(ctx, "/path", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(doer.Last().Body))

	_, err = c.Put(ctx, "/path", []byte(""))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, doer.Last().Method)

	resp, err = c.Delete(ctx, "/path")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "missing", string(resp.Body))

	for _, req := range doer.Requests() {
		assert.Equal(t, "https://cluster/path", req.URL)
		assert.Equal(t, "application/json", req.Header.Get("accept"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "Fetch", req.Header.Get("X-Requested-With"))
	}
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"canceled", context.Canceled, Interrupt},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"net op", &net.OpError{Op: "dial", Err: errors.New("refused")}, ConnectionError},
		{"wrapped cancel", &urlError{context.Canceled}, Interrupt},
		{"other", errors.New("weird"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleHTTPError(tt.err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// urlError wraps an error the way http.Client does.
type urlError struct{ err error }

func (e *urlError) Error() string { return "Get \"https://cluster\": " + e.err.Error() }
func (e *urlError) Unwrap() error { return e.err }

func TestDefaultClientKeepsSession(t *testing.T) {
	// The TLS test server presents a self-signed certificate, so the
	// default client is swapped for the server's client with a cookie jar.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LoginPath:
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			w.WriteHeader(http.StatusOK)
		default:
			if c, err := r.Cookie("session"); err != nil || c.Value != "s1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	client := srv.Client()
	c, err := New(ConnectionData{BaseURL: srv.URL}, WithDoer(client))
	require.NoError(t, err)
	client.Jar = newJar(t)

	require.NoError(t, c.Login(context.Background()))
	resp, err := c.Get(context.Background(), "/app/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func newJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}
