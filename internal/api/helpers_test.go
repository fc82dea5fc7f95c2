package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/service"

	"github.com/stretchr/testify/require"
)

const testSecret = "skillswap-test-secret-0123456789"

type testServer struct {
	store   *repository.InMemoryStore
	handler http.Handler
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, cfg service.SessionConfig) *testServer {
	t.Helper()
	return newTestServerWithPinger(t, cfg, nil)
}

func newTestServerWithPinger(t *testing.T, cfg service.SessionConfig, pinger Pinger) *testServer {
	t.Helper()

	store := repository.NewInMemoryStore()
	_, err := store.EnsureSkills(context.Background(), repository.DefaultSkills)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testSecret, 24*time.Hour)
	require.NoError(t, err)

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if pinger == nil {
		pinger = store
	}

	log := logging.Discard()
	h := NewHandler(Services{
		Sessions: service.NewSessionService(store, tokens, cfg, log),
		Users:    service.NewUserService(store, nil, log),
		Skills:   service.NewSkillService(store, log),
		Swaps:    service.NewSwapService(store, log),
	}, pinger, Options{
		CORSOrigins:  []string{"http://localhost:3000"},
		CookieMaxAge: 24 * time.Hour,
	}, log)

	return &testServer{store: store, handler: h.Routes()}
}

// do sends a request, authenticating with a bearer token when one is given.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type registered struct {
	ID    int64
	Token string
}

func (s *testServer) register(t *testing.T, username string) registered {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password-" + username,
		"password_confirm": "password-" + username,
		"first_name":       username,
	})
	mustStatus(t, rec, http.StatusCreated)

	out := decode[sessionResponse](t, rec)
	return registered{ID: out.User.ID, Token: out.Token}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rec.Code != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, rec.Code, rec.Body.String())
	}
}

// mustError checks the status and the error code of a failed request.
func mustError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	mustStatus(t, rec, status)
	body := decode[errorBody](t, rec)
	require.Equal(t, code, string(body.Error))
	return body
}
