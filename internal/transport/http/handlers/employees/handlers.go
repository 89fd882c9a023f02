package employeehandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/platform/validation"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

type EmployeeService interface {
	Get(ctx context.Context, id string) (employee.Employee, error)
	List(ctx context.Context, filter employee.Filter) ([]employee.Employee, error)
	Create(ctx context.Context, in employee.CreateInput) (employee.Employee, error)
	UpdateStatus(ctx context.Context, id, status string) (employee.Employee, error)
}

type Handler struct {
	Service EmployeeService
	Perms   middleware.PermissionStore
}

func NewHandler(svc EmployeeService, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: svc, Perms: perms}
}

type createPayload struct {
	UserID       string `json:"user_id"`
	EmployeeCode string `json:"employee_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	HireDate     string `json:"hire_date"`
}

type statusPayload struct {
	EmploymentStatus string `json:"employment_status"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{id}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{id}/status", h.handleUpdateStatus)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	list, err := h.Service.List(r.Context(), employee.Filter{
		Status: r.URL.Query().Get("status"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if list == nil {
		list = []employee.Employee{}
	}
	api.Success(w, list, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}

	v := validation.New()
	userID := shared.OptionalUUID(v, "user_id", payload.UserID)
	var hireDate *time.Time
	if d := shared.Date(v, "hire_date", payload.HireDate); !d.IsZero() {
		hireDate = &d
	}
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}

	emp, err := h.Service.Create(r.Context(), employee.CreateInput{
		UserID:       userID,
		EmployeeCode: payload.EmployeeCode,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		Department:   payload.Department,
		Position:     payload.Position,
		HireDate:     hireDate,
	})
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Created(w, emp, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	var payload statusPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	emp, err := h.Service.UpdateStatus(r.Context(), id, payload.EmploymentStatus)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}
