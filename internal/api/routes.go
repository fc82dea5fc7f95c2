package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes builds the chi router. Every path lives under /api; trailing
// slashes are optional.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRFToken"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/session-check", h.handleSessionCheck)

		r.Get("/skills", h.handleListSkills)
		r.Get("/skills/{id}", h.handleGetSkill)

		r.Group(func(r chi.Router) {
			r.Use(h.SessionMiddleware)

			r.Post("/session/refresh", h.handleSessionRefresh)

			r.Get("/users", h.handleListUsers)
			r.Get("/users/search", h.handleSearchUsers)
			r.Get("/users/profile", h.handleGetProfile)
			r.Put("/users/profile", h.handleUpdateProfile)
			r.Post("/users/profile/photo-upload-url", h.handlePhotoUploadURL)
			r.Get("/users/{id}", h.handleGetUser)
			r.Get("/users/{id}/skills", h.handleGetUserSkillsOf)

			r.Post("/skills", h.handleCreateSkill)

			r.Get("/user-skills", h.handleListUserSkills)
			r.Post("/user-skills", h.handleAddUserSkill)
			r.Put("/user-skills/{id}", h.handleUpdateUserSkill)
			r.Delete("/user-skills/{id}", h.handleRemoveUserSkill)

			r.Get("/swap-requests", h.handleListSwapRequests)
			r.Post("/swap-requests", h.handleCreateSwapRequest)
			r.Get("/swap-requests/sent", h.handleListSentSwapRequests)
			r.Get("/swap-requests/received", h.handleListReceivedSwapRequests)
			r.Get("/swap-requests/{id}", h.handleGetSwapRequest)
			r.Put("/swap-requests/{id}", h.handleUpdateSwapRequest)
		})
	})

	return r
}
