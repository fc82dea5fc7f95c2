package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"skillswap-backend/internal/apperrors"
	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/repository"

	"github.com/google/uuid"
)

// ExpiringSoonThreshold is the remaining lifetime under which a session is
// reported as about to expire.
const ExpiringSoonThreshold = 5 * time.Minute

// SessionConfig tunes session lifetime.
type SessionConfig struct {
	Timeout         time.Duration
	SlideOnActivity bool
}

// SessionStore is the subset of repository.Store the session authority uses.
type SessionStore interface {
	repository.UserStore
	repository.SessionStore
}

// SessionService is the session authority: it checks credentials, opens
// and closes sessions and answers whether a session token is still good.
type SessionService struct {
	store  SessionStore
	tokens *auth.TokenService
	cfg    SessionConfig
	log    logging.Logger
	now    func() time.Time
}

func NewSessionService(store SessionStore, tokens *auth.TokenService, cfg SessionConfig, log logging.Logger) *SessionService {
	return &SessionService{
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Timeout returns the configured idle timeout.
func (s *SessionService) Timeout() time.Duration {
	return s.cfg.Timeout
}

// SlidesOnActivity reports whether authenticated requests extend sessions.
func (s *SessionService) SlidesOnActivity() bool {
	return s.cfg.SlideOnActivity
}

// LoginResult is an opened session together with its signed token.
type LoginResult struct {
	User    *models.User
	Session *models.Session
	Token   string
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// Register creates an account and opens a session for it.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	fields := map[string]string{}
	if in.Username == "" {
		fields["username"] = "this field is required"
	}
	if in.Email == "" {
		fields["email"] = "this field is required"
	}
	if in.Password == "" {
		fields["password"] = "this field is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("missing required fields", fields)
	}
	if in.Password != in.PasswordConfirm {
		return nil, apperrors.Validation("passwords don't match", map[string]string{"password_confirm": "passwords don't match"})
	}

	if _, err := s.store.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, apperrors.New(apperrors.CodeUserExists, "a user with that username already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if _, err := s.store.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.New(apperrors.CodeUserExists, "a user with that email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsPublic:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrUserExists
		}
		return nil, apperrors.Internal(err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	return s.openSession(ctx, user)
}

// Login checks credentials and opens a session. identifier may be either a
// username or an email address.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.Validation("please provide username and password", nil)
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internal(err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

func (s *SessionService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, identifier)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return user, err
	}
	return s.store.GetUserByEmail(ctx, identifier)
}

func (s *SessionService) openSession(ctx context.Context, user *models.User) (*LoginResult, error) {
	now := s.now()
	sess := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Timeout),
	}
	sess.ExpiresAt = s.capExpiry(sess, sess.ExpiresAt)

	token, err := s.tokens.NewToken(sess.ID, user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.log.Info(ctx, "session opened", "user_id", user.ID, "session_id", sess.ID)

	return &LoginResult{User: user, Session: sess, Token: token}, nil
}

// capExpiry keeps a session inside the absolute lifetime of its token.
func (s *SessionService) capExpiry(sess *models.Session, expiresAt time.Time) time.Time {
	if limit := sess.CreatedAt.Add(s.tokens.MaxAge()); expiresAt.After(limit) {
		return limit
	}
	return expiresAt
}

// Principal is the identity behind an authenticated request.
type Principal struct {
	User    *models.User
	Session *models.Session
}

// Authenticate resolves a token to a live session. The expiry check
// happens here, once; when sliding is enabled the session is extended
// before the request proceeds.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	sess, err := s.liveSession(ctx, token)
	switch {
	case errors.Is(err, errSessionExpired):
		return nil, apperrors.Wrap(err, apperrors.CodeUnauthenticated, "session expired")
	case errors.Is(err, errNoSession):
		return nil, apperrors.ErrUnauthenticated
	case err != nil:
		return nil, err
	}

	if s.cfg.SlideOnActivity {
		if sess, err = s.slide(ctx, sess); err != nil {
			return nil, err
		}
	}

	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, apperrors.Internal(err)
	}
	return &Principal{User: user, Session: sess}, nil
}

// Refresh extends a live session regardless of the sliding setting.
func (s *SessionService) Refresh(ctx context.Context, sess *models.Session) (*models.Session, error) {
	return s.slide(ctx, sess)
}

func (s *SessionService) slide(ctx context.Context, sess *models.Session) (*models.Session, error) {
	expiresAt := s.capExpiry(sess, s.now().Add(s.cfg.Timeout))
	if !expiresAt.After(sess.ExpiresAt) {
		return sess, nil
	}
	if err := s.store.TouchSession(ctx, sess.ID, expiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeUnauthenticated, "session expired")
		}
		return nil, apperrors.Internal(err)
	}
	updated := *sess
	updated.ExpiresAt = expiresAt
	return &updated, nil
}

var (
	// errNoSession: no token, or one the server never issued.
	errNoSession = errors.New("no session")
	// errSessionExpired: a genuine token whose session has ended.
	errSessionExpired = errors.New("session expired")
)

func (s *SessionService) liveSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, errNoSession
	}
	claims, err := s.tokens.ValidateToken(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, errSessionExpired
	}
	if err != nil {
		return nil, errNoSession
	}

	sess, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errSessionExpired
		}
		return nil, apperrors.Internal(err)
	}
	if sess.UserID != claims.UserID {
		return nil, errNoSession
	}
	if sess.Expired(s.now()) {
		return nil, errSessionExpired
	}
	return sess, nil
}

// SessionStatus is the answer to a session check.
type SessionStatus struct {
	Authenticated  bool         `json:"authenticated"`
	Expired        bool         `json:"expired,omitempty"`
	TimeRemaining  int64        `json:"time_remaining,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	ExpiringSoon   bool         `json:"expiring_soon,omitempty"`
	SessionTimeout int64        `json:"session_timeout,omitempty"`
	User           *models.User `json:"user,omitempty"`
}

// Check reports the state of the session behind token without touching
// it. Only an internal failure yields an error.
func (s *SessionService) Check(ctx context.Context, token string) (*SessionStatus, error) {
	sess, err := s.liveSession(ctx, token)
	switch {
	case errors.Is(err, errSessionExpired):
		return &SessionStatus{Authenticated: false, Expired: true}, nil
	case errors.Is(err, errNoSession):
		return &SessionStatus{Authenticated: false}, nil
	case err != nil:
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &SessionStatus{Authenticated: false, Expired: true}, nil
		}
		return nil, apperrors.Internal(err)
	}
	return s.Status(sess, user), nil
}

// Status describes a live session.
func (s *SessionService) Status(sess *models.Session, user *models.User) *SessionStatus {
	remaining := sess.Remaining(s.now())
	expiresAt := sess.ExpiresAt
	return &SessionStatus{
		Authenticated:  true,
		TimeRemaining:  int64(math.Ceil(remaining.Seconds())),
		ExpiresAt:      &expiresAt,
		ExpiringSoon:   remaining < ExpiringSoonThreshold,
		SessionTimeout: int64(s.cfg.Timeout.Seconds()),
		User:           user,
	}
}

// Logout deletes the session behind token. It succeeds whether or not the
// token names a live session.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	// An expired token still names a session row that should go now.
	claims, err := s.tokens.ParseSigned(token)
	if err != nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, claims.SessionID); err != nil {
		return apperrors.Internal(err)
	}
	s.log.Info(ctx, "session closed", "user_id", claims.UserID, "session_id", claims.SessionID)
	return nil
}

// SweepExpired removes sessions that have expired.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}
