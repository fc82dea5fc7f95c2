package service

import (
	"context"
	"testing"
	"time"

	"skillswap-backend/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSweeper_RemovesExpiredUntilCancelled(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	res := f.register(t, "alice")
	f.clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSessionSweeper(f.sessions, 5*time.Millisecond, logging.Discard()).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := f.store.GetSession(context.Background(), res.Session.ID)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
	assert.Error(t, ctx.Err())
}
