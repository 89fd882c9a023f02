package jobshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/platform/jobs"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

type RunReader interface {
	Get(ctx context.Context, runID string) (jobs.Run, error)
}

type Handler struct {
	Runs  RunReader
	Perms middleware.PermissionStore
}

func NewHandler(runs RunReader, perms middleware.PermissionStore) *Handler {
	return &Handler{Runs: runs, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermJobsRead, h.Perms)).Get("/jobs/{id}", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	run, err := h.Runs.Get(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, run, reqID)
}
