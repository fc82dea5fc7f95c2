package service

import (
	"context"
	"time"

	"skillswap-backend/internal/logging"
)

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	sessions *SessionService
	interval time.Duration
	log      logging.Logger
}

func NewSessionSweeper(sessions *SessionService, interval time.Duration, log logging.Logger) *SessionSweeper {
	return &SessionSweeper{sessions: sessions, interval: interval, log: log}
}

// Run sweeps every interval until ctx is cancelled.
func (w *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info(context.Background(), "session sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	n, err := w.sessions.SweepExpired(ctx)
	if err != nil {
		w.log.Error(ctx, "sweep expired sessions", "error", err)
		return
	}
	if n > 0 {
		w.log.Info(ctx, "expired sessions removed", "count", n)
	}
}
