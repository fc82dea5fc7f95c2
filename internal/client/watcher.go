package client

import (
	"context"
	"sync"
	"time"
)

// ExpiringSoonThreshold is the remaining lifetime below which the watcher
// warns the user.
const ExpiringSoonThreshold = 300 * time.Second

// SessionAPI is the part of Client the watcher drives.
type SessionAPI interface {
	Login(ctx context.Context, identifier, password string) (*LoginResponse, error)
	Logout(ctx context.Context) error
	SessionCheck(ctx context.Context) (*SessionStatus, error)
}

// SessionWatcher polls session-check and keeps a local logged-in flag.
//
// Transport failures are reported through OnError and leave the state
// alone. Only an explicit expired answer logs the user out. Every Login and
// Logout starts a new generation; a check that was issued under an older
// generation is ignored when it returns.
type SessionWatcher struct {
	api      SessionAPI
	interval time.Duration

	OnExpired      func()
	OnExpiringSoon func(remaining time.Duration)
	OnError        func(err error)

	mu            sync.Mutex
	generation    uint64
	authenticated bool
	user          *User
}

func NewSessionWatcher(api SessionAPI, interval time.Duration) *SessionWatcher {
	return &SessionWatcher{api: api, interval: interval}
}

// Authenticated reports the local view of the session.
func (w *SessionWatcher) Authenticated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.authenticated
}

func (w *SessionWatcher) User() *User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

func (w *SessionWatcher) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	resp, err := w.api.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.generation++
	w.authenticated = true
	w.user = resp.User
	w.mu.Unlock()
	return resp, nil
}

// Logout drops the local session first, then tells the server.
func (w *SessionWatcher) Logout(ctx context.Context) error {
	w.mu.Lock()
	w.generation++
	w.authenticated = false
	w.user = nil
	w.mu.Unlock()

	return w.api.Logout(ctx)
}

// Check runs one poll.
func (w *SessionWatcher) Check(ctx context.Context) {
	w.mu.Lock()
	gen := w.generation
	w.mu.Unlock()

	status, err := w.api.SessionCheck(ctx)
	if err != nil {
		if ctx.Err() == nil && w.OnError != nil {
			w.OnError(err)
		}
		return
	}

	var expired, expiringSoon bool
	var remaining time.Duration

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return
	}
	switch {
	case status.Authenticated:
		w.authenticated = true
		if status.User != nil {
			w.user = status.User
		}
		remaining = time.Duration(status.TimeRemaining) * time.Second
		expiringSoon = remaining < ExpiringSoonThreshold
	case status.Expired:
		w.generation++
		w.authenticated = false
		w.user = nil
		expired = true
	}
	w.mu.Unlock()

	if expired && w.OnExpired != nil {
		w.OnExpired()
	}
	if expiringSoon && w.OnExpiringSoon != nil {
		w.OnExpiringSoon(remaining)
	}
}

// Run polls immediately and then every interval until ctx is cancelled.
func (w *SessionWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
