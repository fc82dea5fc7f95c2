package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"skillswap-backend/internal/apperrors"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds HTTP-level settings.
type Options struct {
	CORSOrigins  []string
	CookieSecure bool
	// CookieMaxAge should match the absolute session token lifetime.
	CookieMaxAge time.Duration
}

// Handler carries the dependencies of the HTTP handlers.
type Handler struct {
	sessions *service.SessionService
	users    *service.UserService
	skills   *service.SkillService
	swaps    *service.SwapService
	pinger   Pinger
	validate *validator.Validate
	log      logging.Logger
	opts     Options
}

// Services groups the service layer a Handler needs.
type Services struct {
	Sessions *service.SessionService
	Users    *service.UserService
	Skills   *service.SkillService
	Swaps    *service.SwapService
}

func NewHandler(svc Services, pinger Pinger, opts Options, log logging.Logger) *Handler {
	return &Handler{
		sessions: svc.Sessions,
		users:    svc.Users,
		skills:   svc.Skills,
		swaps:    svc.Swaps,
		pinger:   pinger,
		validate: newValidator(),
		log:      log,
		opts:     opts,
	}
}

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error   apperrors.Code `json:"error"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.log.Error(context.Background(), "encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"INTERNAL_ERROR","message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError renders err. Internal errors are logged and reported
// without their cause.
func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.From(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	h.respondWithJSON(w, status, errorBody{
		Error:   appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required", nil)
		}
		return apperrors.Validation("invalid JSON payload", nil)
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("invalid request", fieldErrors(verrs))
		}
		return apperrors.Validation("invalid request", nil)
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "this field is required"
		case "email":
			out[field] = "enter a valid email address"
		case "eqfield":
			out[field] = "passwords don't match"
		case "oneof":
			out[field] = "must be one of: " + fe.Param()
		default:
			out[field] = fmt.Sprintf("failed %q validation", fe.Tag())
		}
	}
	return out
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.CodeNotFound, "not found")
	}
	return id, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Warn(r.Context(), "health check failed", "error", err)
		h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"storage": "unreachable",
		})
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "storage": "ok"})
}
