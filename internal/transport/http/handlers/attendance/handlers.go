package attendancehandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/platform/validation"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

type Ledger interface {
	List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error)
	ClockIn(ctx context.Context, employeeID string, at time.Time, ip string) (attendance.Record, error)
	ClockOut(ctx context.Context, employeeID string, at time.Time, ip string) (attendance.Record, error)
	Update(ctx context.Context, id string, patch attendance.Patch) (attendance.Record, error)
	Get(ctx context.Context, id string) (attendance.Record, error)
	Record(ctx context.Context, in attendance.RecordInput) (attendance.Record, error)
	Delete(ctx context.Context, id string) error
}

type EmployeeLookup interface {
	FindByUserID(ctx context.Context, userID string) (employee.Employee, error)
}

type Handler struct {
	Ledger    Ledger
	Employees EmployeeLookup
	Perms     middleware.PermissionStore
	Now       func() time.Time
}

func NewHandler(ledger Ledger, employees EmployeeLookup, perms middleware.PermissionStore) *Handler {
	return &Handler{Ledger: ledger, Employees: employees, Perms: perms, Now: time.Now}
}

type recordPayload struct {
	EmployeeID    string          `json:"employee_id"`
	RecordDate    string          `json:"record_date"`
	Status        string          `json:"status"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	Notes         string          `json:"notes"`
}

type updatePayload struct {
	Status        *string          `json:"status"`
	OvertimeHours *decimal.Decimal `json:"overtime_hours"`
	Notes         *string          `json:"notes"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/", h.handleRecord)
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf, h.Perms)).Get("/me", h.handleMine)
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf, h.Perms)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf, h.Perms)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/{id}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Put("/{id}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := validation.New()
	filter := attendance.Filter{
		EmployeeID: shared.OptionalUUID(v, "employee_id", r.URL.Query().Get("employee_id")),
	}
	if d := shared.Date(v, "date", r.URL.Query().Get("date")); !d.IsZero() {
		filter.Date = &d
	}
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	h.writeList(w, r, filter)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.callerEmployee(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 31, 366)
	h.writeList(w, r, attendance.Filter{EmployeeID: emp.ID, Limit: page.Limit, Offset: page.Offset})
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, filter attendance.Filter) {
	reqID := middleware.GetRequestID(r.Context())
	rows, err := h.Ledger.List(r.Context(), filter)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if rows == nil {
		rows = []attendance.Record{}
	}
	api.Success(w, rows, reqID)
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.callerEmployee(w, r)
	if !ok {
		return
	}
	rec, err := h.Ledger.ClockIn(r.Context(), emp.ID, h.Now(), shared.ClientIP(r))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.callerEmployee(w, r)
	if !ok {
		return
	}
	rec, err := h.Ledger.ClockOut(r.Context(), emp.ID, h.Now(), shared.ClientIP(r))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

// handleRecord enters a day for an employee without clock times, e.g. an
// absence HR needs payroll to see.
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload recordPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	v := validation.New()
	in := attendance.RecordInput{
		EmployeeID:    shared.RequiredUUID(v, "employee_id", payload.EmployeeID),
		RecordDate:    shared.Date(v, "record_date", payload.RecordDate),
		Status:        payload.Status,
		OvertimeHours: payload.OvertimeHours,
		Notes:         payload.Notes,
	}
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	rec, err := h.Ledger.Record(r.Context(), in)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Created(w, rec, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	rec, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, rec, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	var payload updatePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	rec, err := h.Ledger.Update(r.Context(), id, attendance.Patch{
		Status:        payload.Status,
		OvertimeHours: payload.OvertimeHours,
		Notes:         payload.Notes,
	})
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, rec, reqID)
}

// callerEmployee resolves the employee linked to the authenticated user.
func (h *Handler) callerEmployee(w http.ResponseWriter, r *http.Request) (employee.Employee, bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return employee.Employee{}, false
	}
	emp, err := h.Employees.FindByUserID(r.Context(), user.UserID)
	if err != nil {
		api.FromError(w, err, reqID)
		return employee.Employee{}, false
	}
	return emp, true
}
