package salaryhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/platform/validation"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

type StructureService interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]salary.Structure, error)
	CurrentFor(ctx context.Context, employeeID string, asOf time.Time) (salary.Structure, bool, error)
	Create(ctx context.Context, in salary.CreateInput) (salary.Structure, error)
	Deactivate(ctx context.Context, id string) (salary.Structure, error)
	End(ctx context.Context, id string, effectiveTo time.Time) (salary.Structure, error)
}

type Handler struct {
	Service StructureService
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(svc StructureService, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: svc, Perms: perms, Now: time.Now}
}

type createPayload struct {
	EmployeeID         string          `json:"employee_id"`
	BasicSalary        decimal.Decimal `json:"basic_salary"`
	HousingAllowance   decimal.Decimal `json:"housing_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`
	OtherAllowances    decimal.Decimal `json:"other_allowances"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	SocialInsurance    decimal.Decimal `json:"social_insurance"`
	Currency           string          `json:"currency"`
	EffectiveFrom      string          `json:"effective_from"`
	EffectiveTo        string          `json:"effective_to"`
}

type endPayload struct {
	EffectiveTo string `json:"effective_to"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/salary-structures", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/current", h.handleCurrent)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Put("/{id}/deactivate", h.handleDeactivate)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Put("/{id}/end", h.handleEnd)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := validation.New()
	employeeID := shared.RequiredUUID(v, "employee_id", r.URL.Query().Get("employee_id"))
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	list, err := h.Service.ListForEmployee(r.Context(), employeeID)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if list == nil {
		list = []salary.Structure{}
	}
	api.Success(w, list, reqID)
}

// handleCurrent resolves the structure in force for an employee on as_of
// (default today).
func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := validation.New()
	employeeID := shared.RequiredUUID(v, "employee_id", r.URL.Query().Get("employee_id"))
	asOf := shared.Date(v, "as_of", r.URL.Query().Get("as_of"))
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if asOf.IsZero() {
		y, m, d := h.Now().Date()
		asOf = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	st, ok, err := h.Service.CurrentFor(r.Context(), employeeID, asOf)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if !ok {
		api.FromError(w, salary.ErrStructureNotFound, reqID)
		return
	}
	api.Success(w, st, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}

	v := validation.New()
	in := salary.CreateInput{
		EmployeeID:         shared.RequiredUUID(v, "employee_id", payload.EmployeeID),
		BasicSalary:        payload.BasicSalary,
		HousingAllowance:   payload.HousingAllowance,
		TransportAllowance: payload.TransportAllowance,
		OtherAllowances:    payload.OtherAllowances,
		TaxRate:            payload.TaxRate,
		SocialInsurance:    payload.SocialInsurance,
		Currency:           payload.Currency,
		EffectiveFrom:      shared.Date(v, "effective_from", payload.EffectiveFrom),
	}
	if to := shared.Date(v, "effective_to", payload.EffectiveTo); !to.IsZero() {
		in.EffectiveTo = &to
	}
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}

	st, err := h.Service.Create(r.Context(), in)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Created(w, st, reqID)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	st, err := h.Service.Deactivate(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, st, reqID)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	var payload endPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	v := validation.New()
	v.Required("effective_to", payload.EffectiveTo)
	to := shared.Date(v, "effective_to", payload.EffectiveTo)
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	st, err := h.Service.End(r.Context(), id, to)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, st, reqID)
}
