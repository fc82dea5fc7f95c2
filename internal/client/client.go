// Package client is a typed HTTP client for the SkillSwap session API and
// a watcher that keeps a local view of the session in sync with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// ErrUnreachable wraps transport failures: the request never produced an
// HTTP response.
var ErrUnreachable = errors.New("skillswap service unreachable")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// User is the public part of a user profile.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResponse struct {
	Message        string    `json:"message"`
	User           *User     `json:"user"`
	SessionTimeout int64     `json:"session_timeout"`
	ExpiresAt      time.Time `json:"expires_at"`
	Token          string    `json:"token"`
}

// SessionStatus mirrors the session-check response.
type SessionStatus struct {
	Authenticated  bool       `json:"authenticated"`
	Expired        bool       `json:"expired"`
	TimeRemaining  int64      `json:"time_remaining"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ExpiringSoon   bool       `json:"expiring_soon"`
	SessionTimeout int64      `json:"session_timeout"`
	User           *User      `json:"user"`
}

// Client talks to the API. The session cookie lives in its cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8000/api. A nil httpClient gets a default one; a client
// without a cookie jar gets a fresh jar.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c := *httpClient
		c.Jar = jar
		httpClient = &c
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

// Login starts a session. identifier may be a username or an email.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"username": identifier, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout/", nil, nil)
}

// SessionCheck asks whether the current session is alive. It never extends
// the session.
func (c *Client) SessionCheck(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.do(ctx, http.MethodGet, "/session-check/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh is the heartbeat: it extends the session.
func (c *Client) Refresh(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.do(ctx, http.MethodPost, "/session/refresh/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
