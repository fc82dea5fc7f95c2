package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a marketplace member.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Location     string    `json:"location"`
	Availability string    `json:"availability"`
	Bio          string    `json:"bio"`
	ProfilePhoto string    `json:"profile_photo"`
	IsPublic     bool      `json:"is_public"`
	Rating       float64   `json:"rating"`
	DateJoined   time.Time `json:"date_joined"`
}

// ProfilePatch lists the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfilePatch struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Location     *string `json:"location"`
	Availability *string `json:"availability"`
	Bio          *string `json:"bio"`
	ProfilePhoto *string `json:"profile_photo"`
	IsPublic     *bool   `json:"is_public"`
}

// UserFilter narrows ListUsers. Empty fields match everything.
type UserFilter struct {
	ExcludeID int64
	Location  string
	Skill     string
	Query     string
}

type Skill struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserSkill marks a skill as offered (teachable) or wanted by a user.
type UserSkill struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"user_id"`
	SkillID   int64 `json:"skill_id"`
	IsOffered bool  `json:"is_offered"`
}

// UserSkillView is a UserSkill with its catalog entry resolved.
type UserSkillView struct {
	ID        int64  `json:"id"`
	Skill     Skill  `json:"skill"`
	SkillName string `json:"skill_name"`
	IsOffered bool   `json:"is_offered"`
}

// Profile is a user plus the skills they list.
type Profile struct {
	User
	OfferedSkills []Skill `json:"offered_skills"`
	WantedSkills  []Skill `json:"wanted_skills"`
	SkillCount    int     `json:"skill_count"`
}

type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapAccepted SwapStatus = "accepted"
	SwapRejected SwapStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapPending, SwapAccepted, SwapRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s SwapStatus) IsTerminal() bool {
	return s == SwapAccepted || s == SwapRejected
}

// SwapRequest is a proposal from sender to receiver to exchange skills.
// Requests are never deleted; rejected and accepted ones stay as history.
type SwapRequest struct {
	ID              int64      `json:"id"`
	SenderID        int64      `json:"sender_id"`
	ReceiverID      int64      `json:"receiver_id"`
	SenderSkillID   *int64     `json:"sender_skill_id,omitempty"`
	ReceiverSkillID *int64     `json:"receiver_skill_id,omitempty"`
	Message         string     `json:"message"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsParticipant reports whether userID is the sender or the receiver.
func (r *SwapRequest) IsParticipant(userID int64) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}

// SwapRequestView is the hydrated form returned to clients.
type SwapRequestView struct {
	ID            int64      `json:"id"`
	Sender        *User      `json:"sender"`
	Receiver      *User      `json:"receiver"`
	SenderSkill   *Skill     `json:"sender_skill"`
	ReceiverSkill *Skill     `json:"receiver_skill"`
	Message       string     `json:"message"`
	Status        SwapStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Session is a server-side login record.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Remaining returns the time left before the session expires at now.
func (s *Session) Remaining(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
