package authhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/platform/validation"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
}

type Handler struct {
	Auth Authenticator
}

func NewHandler(svc Authenticator) *Handler {
	return &Handler{Auth: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRoutes mounts the public login route and the authenticated /me.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.With(middleware.RequireAuth).Get("/me", h.handleMe)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	v := validation.New()
	v.Required("email", payload.Email)
	v.Required("password", payload.Password)
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}

	result, err := h.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, map[string]any{
		"user_id":     user.UserID,
		"role":        user.RoleName,
		"permissions": auth.RolePermissions[user.RoleName],
	}, middleware.GetRequestID(r.Context()))
}
