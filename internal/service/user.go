package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap-backend/internal/apperrors"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PhotoUploadLifetime is how long a presigned profile photo URL stays valid.
const PhotoUploadLifetime = 15 * time.Minute

// ObjectPresigner issues presigned upload URLs. S3Service implements it.
type ObjectPresigner interface {
	GeneratePresignedPutURL(ctx context.Context, objectKey string, lifetime time.Duration) (string, error)
}

// UserStore is the subset of repository.Store the user service uses.
type UserStore interface {
	repository.UserStore
	repository.UserSkillStore
}

// UserService handles profiles and member browsing.
type UserService struct {
	store     UserStore
	presigner ObjectPresigner
	validate  *validator.Validate
	log       logging.Logger
}

// NewUserService creates a user service. presigner may be nil when object
// storage is not configured.
func NewUserService(store UserStore, presigner ObjectPresigner, log logging.Logger) *UserService {
	return &UserService{store: store, presigner: presigner, validate: validator.New(), log: log}
}

func (s *UserService) getUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *UserService) profile(ctx context.Context, user *models.User) (*models.Profile, error) {
	skills, err := s.store.ListUserSkills(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	p := &models.Profile{
		User:          *user,
		OfferedSkills: []models.Skill{},
		WantedSkills:  []models.Skill{},
		SkillCount:    len(skills),
	}
	for _, us := range skills {
		if us.IsOffered {
			p.OfferedSkills = append(p.OfferedSkills, us.Skill)
		} else {
			p.WantedSkills = append(p.WantedSkills, us.Skill)
		}
	}
	return p, nil
}

// GetProfile returns the caller's own profile.
func (s *UserService) GetProfile(ctx context.Context, callerID int64) (*models.Profile, error) {
	user, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

// UpdateProfile applies patch to the caller's profile. Blank optional
// strings are stored as empty.
func (s *UserService) UpdateProfile(ctx context.Context, callerID int64, patch models.ProfilePatch) (*models.Profile, error) {
	user, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := s.validate.Var(email, "required,email"); err != nil {
			return nil, apperrors.Validation("invalid email", map[string]string{"email": "enter a valid email address"})
		}
		user.Email = email
	}
	setTrimmed(&user.FirstName, patch.FirstName)
	setTrimmed(&user.LastName, patch.LastName)
	setTrimmed(&user.Location, patch.Location)
	setTrimmed(&user.Availability, patch.Availability)
	setTrimmed(&user.Bio, patch.Bio)
	setTrimmed(&user.ProfilePhoto, patch.ProfilePhoto)
	if patch.IsPublic != nil {
		user.IsPublic = *patch.IsPublic
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.New(apperrors.CodeUserExists, "a user with that email already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return nil, apperrors.Internal(err)
	}
	s.log.Info(ctx, "profile updated", "user_id", user.ID)
	return s.profile(ctx, user)
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// ListUsers returns public users other than the caller, optionally
// filtered by location and by an offered skill name.
func (s *UserService) ListUsers(ctx context.Context, callerID int64, location, skill string) ([]*models.User, error) {
	users, err := s.store.ListUsers(ctx, models.UserFilter{
		ExcludeID: callerID,
		Location:  strings.TrimSpace(location),
		Skill:     strings.TrimSpace(skill),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// SearchUsers matches q against username, names, location and bio.
func (s *UserService) SearchUsers(ctx context.Context, callerID int64, q string) ([]*models.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperrors.Validation("search query is required", map[string]string{"q": "this field is required"})
	}
	users, err := s.store.ListUsers(ctx, models.UserFilter{ExcludeID: callerID, Query: q})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// visibleUser returns the user if the caller may see them. Private users
// are visible only to themselves.
func (s *UserService) visibleUser(ctx context.Context, id, callerID int64) (*models.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsPublic && user.ID != callerID {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return user, nil
}

// GetUser returns another member's profile.
func (s *UserService) GetUser(ctx context.Context, id, callerID int64) (*models.Profile, error) {
	user, err := s.visibleUser(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

// ListSkillsOf returns the skills a visible member lists.
func (s *UserService) ListSkillsOf(ctx context.Context, id, callerID int64) ([]*models.UserSkillView, error) {
	if _, err := s.visibleUser(ctx, id, callerID); err != nil {
		return nil, err
	}
	skills, err := s.store.ListUserSkills(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return skills, nil
}

// PhotoUpload is a presigned URL the client PUTs the image to, and the key
// to store afterwards as profile_photo.
type PhotoUpload struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
	ExpiresIn int64  `json:"expires_in"`
}

// ProfilePhotoUploadURL issues a presigned upload URL for a new photo.
func (s *UserService) ProfilePhotoUploadURL(ctx context.Context, callerID int64) (*PhotoUpload, error) {
	if s.presigner == nil {
		return nil, apperrors.New(apperrors.CodeUnavailable, "photo uploads are not configured")
	}

	key := fmt.Sprintf("profiles/%d/%s", callerID, uuid.NewString())
	url, err := s.presigner.GeneratePresignedPutURL(ctx, key, PhotoUploadLifetime)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "could not create upload URL")
	}
	return &PhotoUpload{
		UploadURL: url,
		ObjectKey: key,
		ExpiresIn: int64(PhotoUploadLifetime.Seconds()),
	}, nil
}
