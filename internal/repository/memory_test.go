package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"skillswap-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededMemoryStore(t *testing.T) *InMemoryStore {
	t.Helper()
	s := NewInMemoryStore()
	n, err := s.EnsureSkills(context.Background(), DefaultSkills)
	require.NoError(t, err)
	require.Equal(t, len(DefaultSkills), n)
	return s
}

func mustCreateUser(t *testing.T, s *InMemoryStore, username string, public bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", IsPublic: public}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestInMemoryStore_UserUniqueness(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice", true)
	assert.Equal(t, int64(1), alice.ID)
	assert.False(t, alice.DateJoined.IsZero())

	err := s.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.CreateUser(ctx, &models.User{Username: "alice2", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_UpdateUserKeepsImmutableFields(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	alice := mustCreateUser(t, s, "alice", true)
	mustCreateUser(t, s, "bob", true)

	patch := *alice
	patch.Username = "mallory"
	patch.Location = "Lisbon"
	require.NoError(t, s.UpdateUser(ctx, &patch))
	assert.Equal(t, "alice", patch.Username)

	got, err := s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got.Location)
	assert.Equal(t, "alice", got.Username)

	patch.Email = "bob@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, &patch), ErrDuplicate)

	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{ID: 99}), ErrNotFound)
}

func TestInMemoryStore_ListUsersFilters(t *testing.T) {
	s := newSeededMemoryStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice", true)
	bob := mustCreateUser(t, s, "bob", true)
	carol := mustCreateUser(t, s, "carol", false)

	bob.Location = "New York"
	bob.Bio = "Loves sourdough"
	require.NoError(t, s.UpdateUser(ctx, bob))

	skills, err := s.ListSkills(ctx)
	require.NoError(t, err)
	var cooking int64
	for _, sk := range skills {
		if sk.Name == "Cooking" {
			cooking = sk.ID
		}
	}
	require.NotZero(t, cooking)
	require.NoError(t, s.CreateUserSkill(ctx, &models.UserSkill{UserID: bob.ID, SkillID: cooking, IsOffered: true}))
	require.NoError(t, s.CreateUserSkill(ctx, &models.UserSkill{UserID: carol.ID, SkillID: cooking, IsOffered: true}))

	all, err := s.ListUsers(ctx, models.UserFilter{ExcludeID: alice.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bob", all[0].Username)

	byLocation, err := s.ListUsers(ctx, models.UserFilter{Location: "york"})
	require.NoError(t, err)
	require.Len(t, byLocation, 1)

	bySkill, err := s.ListUsers(ctx, models.UserFilter{Skill: "cook"})
	require.NoError(t, err)
	require.Len(t, bySkill, 1)
	assert.Equal(t, bob.ID, bySkill[0].ID)

	byQuery, err := s.ListUsers(ctx, models.UserFilter{Query: "SOURDOUGH"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)

	none, err := s.ListUsers(ctx, models.UserFilter{Query: "carol"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestInMemoryStore_Skills(t *testing.T) {
	s := newSeededMemoryStore(t)
	ctx := context.Background()

	n, err := s.EnsureSkills(ctx, DefaultSkills)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, s.CreateSkill(ctx, &models.Skill{Name: "yoga"}), ErrDuplicate)

	sk := &models.Skill{Name: "Juggling"}
	require.NoError(t, s.CreateSkill(ctx, sk))
	got, err := s.GetSkill(ctx, sk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juggling", got.Name)

	list, err := s.ListSkills(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(DefaultSkills)+1)
	assert.Equal(t, "Business Strategy", list[0].Name)
}

func TestInMemoryStore_UserSkillTriple(t *testing.T) {
	s := newSeededMemoryStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, s, "alice", true)

	offered := &models.UserSkill{UserID: alice.ID, SkillID: 1, IsOffered: true}
	require.NoError(t, s.CreateUserSkill(ctx, offered))

	dup := &models.UserSkill{UserID: alice.ID, SkillID: 1, IsOffered: true}
	assert.ErrorIs(t, s.CreateUserSkill(ctx, dup), ErrDuplicate)

	wanted := &models.UserSkill{UserID: alice.ID, SkillID: 1, IsOffered: false}
	require.NoError(t, s.CreateUserSkill(ctx, wanted))

	_, err := s.SetUserSkillOffered(ctx, wanted.ID, true)
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.ErrorIs(t, s.CreateUserSkill(ctx, &models.UserSkill{UserID: alice.ID, SkillID: 999}), ErrNotFound)

	views, err := s.ListUserSkills(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Programming", views[0].SkillName)

	require.NoError(t, s.DeleteUserSkill(ctx, offered.ID))
	assert.ErrorIs(t, s.DeleteUserSkill(ctx, offered.ID), ErrNotFound)

	flipped, err := s.SetUserSkillOffered(ctx, wanted.ID, true)
	require.NoError(t, err)
	assert.True(t, flipped.IsOffered)
}

func TestInMemoryStore_SwapLedger(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := base
	s.now = func() time.Time { return tick }

	alice := mustCreateUser(t, s, "alice", true)
	bob := mustCreateUser(t, s, "bob", true)
	carol := mustCreateUser(t, s, "carol", true)

	first := &models.SwapRequest{SenderID: alice.ID, ReceiverID: bob.ID, Message: "hi"}
	require.NoError(t, s.CreateSwapRequest(ctx, first))
	assert.Equal(t, models.SwapPending, first.Status)

	dup := &models.SwapRequest{SenderID: alice.ID, ReceiverID: bob.ID}
	assert.ErrorIs(t, s.CreateSwapRequest(ctx, dup), ErrDuplicate)

	// Same timestamp: the higher id sorts first.
	second := &models.SwapRequest{SenderID: carol.ID, ReceiverID: alice.ID}
	require.NoError(t, s.CreateSwapRequest(ctx, second))

	tick = base.Add(time.Minute)
	third := &models.SwapRequest{SenderID: bob.ID, ReceiverID: alice.ID}
	require.NoError(t, s.CreateSwapRequest(ctx, third))

	all, err := s.ListSwapRequests(ctx, alice.ID, SwapsAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	sent, err := s.ListSwapRequests(ctx, alice.ID, SwapsSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, first.ID, sent[0].ID)

	received, err := s.ListSwapRequests(ctx, alice.ID, SwapsReceived)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	updated, err := s.UpdateSwapStatus(ctx, first.ID, models.SwapAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.SwapAccepted, updated.Status)

	_, err = s.UpdateSwapStatus(ctx, first.ID, models.SwapRejected)
	assert.ErrorIs(t, err, ErrStaleState)

	_, err = s.UpdateSwapStatus(ctx, 999, models.SwapRejected)
	assert.ErrorIs(t, err, ErrNotFound)

	// A terminal request no longer blocks a new pending one.
	again := &models.SwapRequest{SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, s.CreateSwapRequest(ctx, again))
}

func TestInMemoryStore_ConcurrentStatusUpdate(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	alice := mustCreateUser(t, s, "alice", true)
	bob := mustCreateUser(t, s, "bob", true)

	req := &models.SwapRequest{SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, s.CreateSwapRequest(ctx, req))

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		status := models.SwapAccepted
		if i%2 == 1 {
			status = models.SwapRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateSwapStatus(ctx, req.ID, status)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrStaleState)
	}
	assert.Equal(t, 1, wins)
}

func TestInMemoryStore_Sessions(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now()

	live := &models.Session{ID: uuid.New(), UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := &models.Session{ID: uuid.New(), UserID: 1, CreatedAt: now, ExpiresAt: now.Add(-time.Second)}
	require.NoError(t, s.CreateSession(ctx, live))
	require.NoError(t, s.CreateSession(ctx, dead))
	assert.ErrorIs(t, s.CreateSession(ctx, live), ErrDuplicate)

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSession(ctx, dead.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	later := now.Add(2 * time.Hour)
	require.NoError(t, s.TouchSession(ctx, live.ID, later))
	got, err := s.GetSession(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, later.Equal(got.ExpiresAt))

	require.NoError(t, s.DeleteSession(ctx, live.ID))
	require.NoError(t, s.DeleteSession(ctx, live.ID))
	assert.ErrorIs(t, s.TouchSession(ctx, live.ID, later), ErrNotFound)
}
