package api

import "net/http"

type createSkillRequest struct {
	Name string `json:"name" validate:"required"`
}

type addUserSkillRequest struct {
	SkillID   int64 `json:"skill_id" validate:"required"`
	IsOffered *bool `json:"is_offered" validate:"required"`
}

type updateUserSkillRequest struct {
	IsOffered *bool `json:"is_offered" validate:"required"`
}

func (h *Handler) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.skills.ListSkills(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, skills)
}

func (h *Handler) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	skill, err := h.skills.GetSkill(r.Context(), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, skill)
}

func (h *Handler) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	skill, err := h.skills.CreateSkill(r.Context(), req.Name)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, skill)
}

func (h *Handler) handleListUserSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.skills.ListUserSkills(r.Context(), callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, skills)
}

func (h *Handler) handleAddUserSkill(w http.ResponseWriter, r *http.Request) {
	var req addUserSkillRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	us, err := h.skills.AddUserSkill(r.Context(), callerID(r), req.SkillID, *req.IsOffered)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, us)
}

func (h *Handler) handleUpdateUserSkill(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	var req updateUserSkillRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	us, err := h.skills.UpdateUserSkill(r.Context(), id, *req.IsOffered, callerID(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, us)
}

func (h *Handler) handleRemoveUserSkill(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.skills.RemoveUserSkill(r.Context(), id, callerID(r)); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
