package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"skillswap-backend/internal/apperrors"
	"skillswap-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSwapService_AliceAndBob(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.register(t, "alice").User
	bob := f.register(t, "bob").User
	python := f.skillID(t, "Programming")
	cooking := f.skillID(t, "Cooking")

	created, err := f.swaps.Create(ctx, alice.ID, CreateSwapInput{
		ReceiverID:      bob.ID,
		SenderSkillID:   int64Ptr(python),
		ReceiverSkillID: int64Ptr(cooking),
		Message:         "  Teach me to cook?  ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SwapPending, created.Status)
	assert.Equal(t, "Teach me to cook?", created.Message)
	assert.Equal(t, "alice", created.Sender.Username)
	assert.Equal(t, "bob", created.Receiver.Username)
	require.NotNil(t, created.SenderSkill)
	assert.Equal(t, "Programming", created.SenderSkill.Name)
	require.NotNil(t, created.ReceiverSkill)
	assert.Equal(t, "Cooking", created.ReceiverSkill.Name)

	sent, err := f.swaps.ListSent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	received, err := f.swaps.ListReceived(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, created.ID, received[0].ID)

	// The sender cannot answer their own request.
	_, err = f.swaps.UpdateStatus(ctx, created.ID, "accepted", alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	accepted, err := f.swaps.UpdateStatus(ctx, created.ID, "accepted", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapAccepted, accepted.Status)

	// Terminal: every further transition fails, whoever asks.
	_, err = f.swaps.UpdateStatus(ctx, created.ID, "rejected", bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = f.swaps.UpdateStatus(ctx, created.ID, "rejected", alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	got, err := f.swaps.Get(ctx, created.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapAccepted, got.Status)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}

func TestSwapService_CreateValidation(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.register(t, "alice").User
	bob := f.register(t, "bob").User

	_, err := f.swaps.Create(ctx, alice.ID, CreateSwapInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: alice.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTarget)

	_, err = f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: 999})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID, SenderSkillID: int64Ptr(999)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID, ReceiverSkillID: int64Ptr(999)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := f.swaps.ListAll(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSwapService_OnePendingPerPair(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.register(t, "alice").User
	bob := f.register(t, "bob").User

	first, err := f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID})
	require.NoError(t, err)

	_, err = f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)

	// The opposite direction is a different pair.
	_, err = f.swaps.Create(ctx, bob.ID, CreateSwapInput{ReceiverID: alice.ID})
	require.NoError(t, err)

	_, err = f.swaps.UpdateStatus(ctx, first.ID, "rejected", bob.ID)
	require.NoError(t, err)

	_, err = f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID})
	require.NoError(t, err)
}

func TestSwapService_UpdateStatusOrdering(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.register(t, "alice").User
	bob := f.register(t, "bob").User
	carol := f.register(t, "carol").User

	req, err := f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID})
	require.NoError(t, err)

	tests := []struct {
		name   string
		status string
		caller int64
		want   *apperrors.Error
	}{
		{"outsider sees nothing", "accepted", carol.ID, apperrors.ErrNotFound},
		{"unknown status", "cancelled", bob.ID, apperrors.ErrValidation},
		{"sender", "rejected", alice.ID, apperrors.ErrForbidden},
		{"back to pending", "pending", bob.ID, apperrors.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.swaps.UpdateStatus(ctx, req.ID, tt.status, tt.caller)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = f.swaps.UpdateStatus(ctx, 999, "accepted", bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.swaps.Get(ctx, req.ID, carol.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	rejected, err := f.swaps.UpdateStatus(ctx, req.ID, " Rejected ", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapRejected, rejected.Status)
}

func TestSwapService_ConcurrentAnswersOneWins(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.register(t, "alice").User
	bob := f.register(t, "bob").User

	req, err := f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	statuses := []string{"accepted", "rejected"}
	errs := make([]error, len(statuses))
	results := make([]*models.SwapRequestView, len(statuses))
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			results[i], errs[i] = f.swaps.UpdateStatus(ctx, req.ID, status, bob.ID)
		}(i, status)
	}
	wg.Wait()

	var winner models.SwapStatus
	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			winner = models.SwapStatus(statuses[i])
			assert.Equal(t, winner, results[i].Status)
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	}
	require.Equal(t, 1, succeeded)

	got, err := f.swaps.Get(ctx, req.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, got.Status)
}

func TestSwapService_ListOrdering(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.register(t, "alice").User
	bob := f.register(t, "bob").User
	carol := f.register(t, "carol").User

	first, err := f.swaps.Create(ctx, alice.ID, CreateSwapInput{ReceiverID: bob.ID})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.swaps.Create(ctx, carol.ID, CreateSwapInput{ReceiverID: alice.ID})
	require.NoError(t, err)

	all, err := f.swaps.ListAll(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	assert.Nil(t, all[0].SenderSkill)
}
