package api

import (
	"net/http"

	"skillswap-backend/internal/models"
)

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := h.decodeAndValidate(w, r, &patch); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), callerID(r), patch)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, profile)
}

func (h *Handler) handlePhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	upload, err := h.users.ProfilePhotoUploadURL(r.Context(), callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, upload)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.users.ListUsers(r.Context(), callerID(r), q.Get("location"), q.Get("skill"))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, users)
}

func (h *Handler) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.SearchUsers(r.Context(), callerID(r), r.URL.Query().Get("q"))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	profile, err := h.users.GetUser(r.Context(), id, callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleGetUserSkillsOf(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	skills, err := h.users.ListSkillsOf(r.Context(), id, callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, skills)
}
