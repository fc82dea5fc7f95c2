package service

import (
	"context"
	"errors"
	"strings"

	"skillswap-backend/internal/apperrors"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/repository"
)

// SkillStore is the subset of repository.Store the skill service uses.
type SkillStore interface {
	repository.SkillStore
	repository.UserSkillStore
}

// SkillService manages the skill catalog and the skills users list.
type SkillService struct {
	store SkillStore
	log   logging.Logger
}

func NewSkillService(store SkillStore, log logging.Logger) *SkillService {
	return &SkillService{store: store, log: log}
}

func (s *SkillService) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	skills, err := s.store.ListSkills(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return skills, nil
}

func (s *SkillService) GetSkill(ctx context.Context, id int64) (*models.Skill, error) {
	skill, err := s.store.GetSkill(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "skill not found")
		}
		return nil, apperrors.Internal(err)
	}
	return skill, nil
}

// CreateSkill adds a catalog entry. Names are unique ignoring case.
func (s *SkillService) CreateSkill(ctx context.Context, name string) (*models.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("skill name is required", map[string]string{"name": "this field is required"})
	}

	skill := &models.Skill{Name: name}
	if err := s.store.CreateSkill(ctx, skill); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.New(apperrors.CodeDuplicateSkill, "a skill with that name already exists")
		}
		return nil, apperrors.Internal(err)
	}
	s.log.Info(ctx, "skill created", "skill_id", skill.ID, "name", skill.Name)
	return skill, nil
}

// ListUserSkills returns the caller's skills.
func (s *SkillService) ListUserSkills(ctx context.Context, callerID int64) ([]*models.UserSkillView, error) {
	views, err := s.store.ListUserSkills(ctx, callerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return views, nil
}

// AddUserSkill lists a catalog skill as offered or wanted by the caller.
func (s *SkillService) AddUserSkill(ctx context.Context, callerID, skillID int64, isOffered bool) (*models.UserSkillView, error) {
	skill, err := s.GetSkill(ctx, skillID)
	if err != nil {
		return nil, err
	}

	us := &models.UserSkill{UserID: callerID, SkillID: skillID, IsOffered: isOffered}
	if err := s.store.CreateUserSkill(ctx, us); err != nil {
		return nil, s.userSkillError(err, isOffered)
	}
	return userSkillView(us, skill), nil
}

// UpdateUserSkill switches a listed skill between offered and wanted.
func (s *SkillService) UpdateUserSkill(ctx context.Context, id int64, isOffered bool, callerID int64) (*models.UserSkillView, error) {
	if _, err := s.ownedUserSkill(ctx, id, callerID); err != nil {
		return nil, err
	}

	us, err := s.store.SetUserSkillOffered(ctx, id, isOffered)
	if err != nil {
		return nil, s.userSkillError(err, isOffered)
	}
	skill, err := s.GetSkill(ctx, us.SkillID)
	if err != nil {
		return nil, err
	}
	return userSkillView(us, skill), nil
}

// RemoveUserSkill deletes one of the caller's listed skills.
func (s *SkillService) RemoveUserSkill(ctx context.Context, id, callerID int64) error {
	if _, err := s.ownedUserSkill(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.store.DeleteUserSkill(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "user skill not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *SkillService) ownedUserSkill(ctx context.Context, id, callerID int64) (*models.UserSkill, error) {
	us, err := s.store.GetUserSkill(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "user skill not found")
		}
		return nil, apperrors.Internal(err)
	}
	if us.UserID != callerID {
		return nil, apperrors.New(apperrors.CodeForbidden, "you can only change your own skills")
	}
	return us, nil
}

func (s *SkillService) userSkillError(err error, isOffered bool) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		kind := "wanted"
		if isOffered {
			kind = "offered"
		}
		return apperrors.New(apperrors.CodeDuplicateSkill, "you already have this skill marked as "+kind)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.New(apperrors.CodeNotFound, "skill not found")
	}
	return apperrors.Internal(err)
}

func userSkillView(us *models.UserSkill, skill *models.Skill) *models.UserSkillView {
	return &models.UserSkillView{
		ID:        us.ID,
		Skill:     *skill,
		SkillName: skill.Name,
		IsOffered: us.IsOffered,
	}
}
