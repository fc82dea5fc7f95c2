package api

import (
	"net/http"
	"time"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/service"
)

type registerRequest struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type loginRequest struct {
	// Username also accepts an email address.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Message        string       `json:"message"`
	User           *models.User `json:"user"`
	SessionTimeout int64        `json:"session_timeout"`
	ExpiresAt      time.Time    `json:"expires_at"`
	Token          string       `json:"token"`
}

func (h *Handler) newSessionResponse(msg string, res *service.LoginResult) sessionResponse {
	return sessionResponse{
		Message:        msg,
		User:           res.User,
		SessionTimeout: int64(h.sessions.Timeout().Seconds()),
		ExpiresAt:      res.Session.ExpiresAt,
		Token:          res.Token,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	res, err := h.sessions.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	h.respondWithJSON(w, http.StatusCreated, h.newSessionResponse("Registration successful", res))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	h.respondWithJSON(w, http.StatusOK, h.newSessionResponse("Login successful", res))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), sessionToken(r)); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.clearSessionCookie(w)
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.sessions.Check(r.Context(), sessionToken(r))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if status.Expired {
		h.clearSessionCookie(w)
	}
	h.respondWithJSON(w, http.StatusOK, status)
}

// handleSessionRefresh is the heartbeat: it extends the session even when
// sliding on activity is turned off.
func (h *Handler) handleSessionRefresh(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	sess, err := h.sessions.Refresh(r.Context(), p.Session)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.sessions.Status(sess, p.User))
}
