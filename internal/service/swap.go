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

// SwapStore is the subset of repository.Store the swap ledger uses.
type SwapStore interface {
	repository.UserStore
	repository.SkillStore
	repository.SwapStore
}

// SwapService is the swap request ledger. It owns the status machine:
// pending moves to accepted or rejected once, by the receiver, and
// nothing leaves a terminal state.
type SwapService struct {
	store SwapStore
	log   logging.Logger
}

func NewSwapService(store SwapStore, log logging.Logger) *SwapService {
	return &SwapService{store: store, log: log}
}

// CreateSwapInput describes a new swap request.
type CreateSwapInput struct {
	ReceiverID      int64
	SenderSkillID   *int64
	ReceiverSkillID *int64
	Message         string
}

// Create records a pending request from the caller to in.ReceiverID.
func (s *SwapService) Create(ctx context.Context, callerID int64, in CreateSwapInput) (*models.SwapRequestView, error) {
	if in.ReceiverID == 0 {
		return nil, apperrors.Validation("receiver is required", map[string]string{"receiver_id": "this field is required"})
	}
	if in.ReceiverID == callerID {
		return nil, apperrors.New(apperrors.CodeInvalidTarget, "you cannot send a swap request to yourself")
	}

	if _, err := s.store.GetUserByID(ctx, in.ReceiverID); err != nil {
		return nil, notFoundOr(err, "receiver not found")
	}
	for _, id := range []*int64{in.SenderSkillID, in.ReceiverSkillID} {
		if id == nil {
			continue
		}
		if _, err := s.store.GetSkill(ctx, *id); err != nil {
			return nil, notFoundOr(err, "skill not found")
		}
	}

	req := &models.SwapRequest{
		SenderID:        callerID,
		ReceiverID:      in.ReceiverID,
		SenderSkillID:   in.SenderSkillID,
		ReceiverSkillID: in.ReceiverSkillID,
		Message:         strings.TrimSpace(in.Message),
	}
	if err := s.store.CreateSwapRequest(ctx, req); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.New(apperrors.CodeDuplicateRequest, "you already have a pending request to this user")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.New(apperrors.CodeNotFound, "receiver or skill not found")
		}
		return nil, apperrors.Internal(err)
	}
	s.log.Info(ctx, "swap request created", "swap_id", req.ID, "sender_id", req.SenderID, "receiver_id", req.ReceiverID)

	return s.hydrateOne(ctx, req)
}

// ListAll returns every request the caller sent or received, newest first.
func (s *SwapService) ListAll(ctx context.Context, callerID int64) ([]*models.SwapRequestView, error) {
	return s.list(ctx, callerID, repository.SwapsAll)
}

func (s *SwapService) ListSent(ctx context.Context, callerID int64) ([]*models.SwapRequestView, error) {
	return s.list(ctx, callerID, repository.SwapsSent)
}

func (s *SwapService) ListReceived(ctx context.Context, callerID int64) ([]*models.SwapRequestView, error) {
	return s.list(ctx, callerID, repository.SwapsReceived)
}

func (s *SwapService) list(ctx context.Context, callerID int64, dir repository.SwapDirection) ([]*models.SwapRequestView, error) {
	reqs, err := s.store.ListSwapRequests(ctx, callerID, dir)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	h := newHydrator(s.store)
	views := make([]*models.SwapRequestView, 0, len(reqs))
	for _, r := range reqs {
		v, err := h.view(ctx, r)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Get returns a request the caller takes part in. Requests between other
// users are reported as missing.
func (s *SwapService) Get(ctx context.Context, id, callerID int64) (*models.SwapRequestView, error) {
	req, err := s.participantRequest(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return s.hydrateOne(ctx, req)
}

// UpdateStatus answers a pending request. Checks run in this order:
// visibility, status value, terminal state, actor, target state. The
// final write is conditional on the request still being pending, so of
// two concurrent answers exactly one wins.
func (s *SwapService) UpdateStatus(ctx context.Context, id int64, status string, callerID int64) (*models.SwapRequestView, error) {
	req, err := s.participantRequest(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	next := models.SwapStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperrors.Validation("invalid status", map[string]string{"status": "must be one of pending, accepted, rejected"})
	}
	if req.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.CodeInvalidTransition, "this request has already been "+string(req.Status))
	}
	if req.SenderID == callerID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the receiver can answer a swap request")
	}
	if next == models.SwapPending {
		return nil, apperrors.New(apperrors.CodeInvalidTransition, "a request cannot be moved back to pending")
	}

	updated, err := s.store.UpdateSwapStatus(ctx, id, next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleState):
			return nil, apperrors.New(apperrors.CodeInvalidTransition, "this request has already been answered")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.New(apperrors.CodeNotFound, "swap request not found")
		}
		return nil, apperrors.Internal(err)
	}
	s.log.Info(ctx, "swap request answered", "swap_id", id, "status", updated.Status)

	return s.hydrateOne(ctx, updated)
}

func (s *SwapService) participantRequest(ctx context.Context, id, callerID int64) (*models.SwapRequest, error) {
	req, err := s.store.GetSwapRequest(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "swap request not found")
	}
	if !req.IsParticipant(callerID) {
		return nil, apperrors.New(apperrors.CodeNotFound, "swap request not found")
	}
	return req, nil
}

func (s *SwapService) hydrateOne(ctx context.Context, req *models.SwapRequest) (*models.SwapRequestView, error) {
	return newHydrator(s.store).view(ctx, req)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.New(apperrors.CodeNotFound, msg)
	}
	return apperrors.Internal(err)
}

// hydrator resolves the users and skills a batch of requests refers to,
// fetching each one once.
type hydrator struct {
	store  SwapStore
	users  map[int64]*models.User
	skills map[int64]*models.Skill
}

func newHydrator(store SwapStore) *hydrator {
	return &hydrator{
		store:  store,
		users:  make(map[int64]*models.User),
		skills: make(map[int64]*models.Skill),
	}
}

func (h *hydrator) view(ctx context.Context, r *models.SwapRequest) (*models.SwapRequestView, error) {
	sender, err := h.user(ctx, r.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := h.user(ctx, r.ReceiverID)
	if err != nil {
		return nil, err
	}
	senderSkill, err := h.skill(ctx, r.SenderSkillID)
	if err != nil {
		return nil, err
	}
	receiverSkill, err := h.skill(ctx, r.ReceiverSkillID)
	if err != nil {
		return nil, err
	}

	return &models.SwapRequestView{
		ID:            r.ID,
		Sender:        sender,
		Receiver:      receiver,
		SenderSkill:   senderSkill,
		ReceiverSkill: receiverSkill,
		Message:       r.Message,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}, nil
}

func (h *hydrator) user(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := h.users[id]; ok {
		return u, nil
	}
	u, err := h.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	h.users[id] = u
	return u, nil
}

// skill returns nil for an absent or since-deleted skill.
func (h *hydrator) skill(ctx context.Context, id *int64) (*models.Skill, error) {
	if id == nil {
		return nil, nil
	}
	if sk, ok := h.skills[*id]; ok {
		return sk, nil
	}
	sk, err := h.store.GetSkill(ctx, *id)
	if errors.Is(err, repository.ErrNotFound) {
		sk, err = nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	h.skills[*id] = sk
	return sk, nil
}
