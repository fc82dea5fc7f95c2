package repository

import (
	"context"
	"errors"
	"time"

	"skillswap-backend/internal/models"

	"github.com/google/uuid"
)

// Sentinel errors returned by every Store implementation. Services
// translate them into application errors.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate reports a uniqueness constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState reports that a conditional update matched no row
	// because the record left the expected state.
	ErrStaleState = errors.New("record is no longer in the expected state")
)

// SwapDirection selects which side of a swap request a listing covers.
type SwapDirection int

const (
	SwapsAll SwapDirection = iota
	SwapsSent
	SwapsReceived
)

// UserStore defines user persistence.
type UserStore interface {
	// CreateUser assigns user.ID and user.DateJoined.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// ListUsers returns public users matching filter, ordered by id.
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
}

// SkillStore defines the global skill catalog.
type SkillStore interface {
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	GetSkill(ctx context.Context, id int64) (*models.Skill, error)
	// CreateSkill fails with ErrDuplicate when a skill with the same name,
	// compared case-insensitively, exists.
	CreateSkill(ctx context.Context, skill *models.Skill) error
	// EnsureSkills creates the named skills that are missing and reports
	// how many were created.
	EnsureSkills(ctx context.Context, names []string) (int, error)
}

// UserSkillStore links users to catalog skills.
type UserSkillStore interface {
	ListUserSkills(ctx context.Context, userID int64) ([]*models.UserSkillView, error)
	GetUserSkill(ctx context.Context, id int64) (*models.UserSkill, error)
	// CreateUserSkill fails with ErrDuplicate when the
	// (user, skill, is_offered) triple exists.
	CreateUserSkill(ctx context.Context, us *models.UserSkill) error
	SetUserSkillOffered(ctx context.Context, id int64, isOffered bool) (*models.UserSkill, error)
	DeleteUserSkill(ctx context.Context, id int64) error
}

// SwapStore is the swap request ledger.
type SwapStore interface {
	// CreateSwapRequest fails with ErrDuplicate when a pending request
	// from the same sender to the same receiver exists.
	CreateSwapRequest(ctx context.Context, req *models.SwapRequest) error
	GetSwapRequest(ctx context.Context, id int64) (*models.SwapRequest, error)
	// ListSwapRequests returns requests involving userID, newest first.
	ListSwapRequests(ctx context.Context, userID int64, dir SwapDirection) ([]*models.SwapRequest, error)
	// UpdateSwapStatus moves a pending request to status. It fails with
	// ErrStaleState if the request is not pending at the time of the write.
	UpdateSwapStatus(ctx context.Context, id int64, status models.SwapStatus) (*models.SwapRequest, error)
}

// SessionStore keeps server-side sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// TouchSession moves the expiry of a live session.
	TouchSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	// DeleteSession is idempotent.
	DeleteSession(ctx context.Context, id uuid.UUID) error
	// DeleteExpiredSessions removes sessions expired at now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store aggregates every store interface behind one dependency.
type Store interface {
	UserStore
	SkillStore
	UserSkillStore
	SwapStore
	SessionStore

	Ping(ctx context.Context) error
	Close() error
}

// DefaultSkills is the catalog every fresh deployment starts with.
var DefaultSkills = []string{
	"Programming",
	"Web Development",
	"Mobile Development",
	"Data Science",
	"Machine Learning",
	"Graphic Design",
	"UI/UX Design",
	"Digital Marketing",
	"Content Writing",
	"Video Editing",
	"Photography",
	"Music Production",
	"Cooking",
	"Language Teaching",
	"Fitness Training",
	"Yoga",
	"Meditation",
	"Drawing",
	"Painting",
	"Crafting",
	"Gardening",
	"Carpentry",
	"Plumbing",
	"Electrical Work",
	"Car Maintenance",
	"Financial Planning",
	"Business Strategy",
	"Public Speaking",
	"Leadership",
	"Project Management",
}
