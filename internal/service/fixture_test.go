package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/repository"

	"github.com/stretchr/testify/require"
)

const testSecret = "skillswap-test-secret-0123456789"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *repository.InMemoryStore
	clock    *testClock
	sessions *SessionService
	users    *UserService
	skills   *SkillService
	swaps    *SwapService
}

func newFixture(t *testing.T, cfg SessionConfig) *fixture {
	t.Helper()

	store := repository.NewInMemoryStore()
	_, err := store.EnsureSkills(context.Background(), repository.DefaultSkills)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testSecret, 24*time.Hour)
	require.NoError(t, err)

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Minute
	}
	log := logging.Discard()
	clock := &testClock{now: time.Now()}

	sessions := NewSessionService(store, tokens, cfg, log)
	sessions.now = clock.Now

	return &fixture{
		store:    store,
		clock:    clock,
		sessions: sessions,
		users:    NewUserService(store, nil, log),
		skills:   NewSkillService(store, log),
		swaps:    NewSwapService(store, log),
	}
}

func (f *fixture) register(t *testing.T, username string) *LoginResult {
	t.Helper()
	res, err := f.sessions.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password-" + username,
		PasswordConfirm: "password-" + username,
		FirstName:       username,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) skillID(t *testing.T, name string) int64 {
	t.Helper()
	skills, err := f.store.ListSkills(context.Background())
	require.NoError(t, err)
	for _, s := range skills {
		if s.Name == name {
			return s.ID
		}
	}
	t.Fatalf("skill %q not seeded", name)
	return 0
}
