package api

import (
	"context"
	"net/http"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/service"
)

type createSwapRequest struct {
	ReceiverID      int64  `json:"receiver_id" validate:"required"`
	SenderSkillID   *int64 `json:"sender_skill_id"`
	ReceiverSkillID *int64 `json:"receiver_skill_id"`
	Message         string `json:"message"`
}

type updateSwapRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleCreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req createSwapRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	view, err := h.swaps.Create(r.Context(), callerID(r), service.CreateSwapInput{
		ReceiverID:      req.ReceiverID,
		SenderSkillID:   req.SenderSkillID,
		ReceiverSkillID: req.ReceiverSkillID,
		Message:         req.Message,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleListSwapRequests(w http.ResponseWriter, r *http.Request) {
	h.respondWithList(w, r, h.swaps.ListAll)
}

func (h *Handler) handleListSentSwapRequests(w http.ResponseWriter, r *http.Request) {
	h.respondWithList(w, r, h.swaps.ListSent)
}

func (h *Handler) handleListReceivedSwapRequests(w http.ResponseWriter, r *http.Request) {
	h.respondWithList(w, r, h.swaps.ListReceived)
}

type swapLister func(ctx context.Context, callerID int64) ([]*models.SwapRequestView, error)

func (h *Handler) respondWithList(w http.ResponseWriter, r *http.Request, list swapLister) {
	views, err := list(r.Context(), callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetSwapRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	view, err := h.swaps.Get(r.Context(), id, callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, view)
}

// handleUpdateSwapRequest lets the receiver accept or reject a pending
// request.
func (h *Handler) handleUpdateSwapRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	var req updateSwapRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	view, err := h.swaps.UpdateStatus(r.Context(), id, req.Status, callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, view)
}
