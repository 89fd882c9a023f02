package payrollhandler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/payroll"
	"github.com/openhrm/hrm/internal/platform/jobs"
	"github.com/openhrm/hrm/internal/platform/validation"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

type PayrollService interface {
	CreatePeriod(ctx context.Context, in payroll.CreatePeriodInput) (payroll.Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]payroll.Period, int, error)
	GetPeriod(ctx context.Context, id string) (payroll.Period, error)
	PeriodSummary(ctx context.Context, id string) (payroll.PeriodSummary, error)
	Calculate(ctx context.Context, periodID string) (payroll.CalculationResult, error)
	StartProcessing(ctx context.Context, periodID, actorID string) (payroll.Period, error)
	Approve(ctx context.Context, periodID, approverID string) (payroll.Period, error)
	MarkPaid(ctx context.Context, periodID, actorID string) (payroll.Period, error)
	Cancel(ctx context.Context, periodID, actorID string) (payroll.Period, error)
	ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.Record, int, error)
	GetRecord(ctx context.Context, id string) (payroll.Record, error)
	MyPayslips(ctx context.Context, userID string) ([]payroll.Record, error)
	OwnsRecord(ctx context.Context, userID string, rec payroll.Record) (bool, error)
	UpdateRecordAdjustments(ctx context.Context, recordID string, adj payroll.Adjustments) (payroll.Record, error)
}

type JobRunner interface {
	Enqueue(ctx context.Context, jobType, createdBy string, run jobs.RunFunc) (string, error)
	RunNow(ctx context.Context, jobType, createdBy string, run jobs.RunFunc) (string, any, error)
}

type EnqueueRecorder interface {
	RecordEnqueue(jobType string, err error)
}

type Handler struct {
	Service PayrollService
	Jobs    JobRunner
	Perms   middleware.PermissionStore
	Metrics EnqueueRecorder
}

func NewHandler(svc PayrollService, runner JobRunner, perms middleware.PermissionStore, metrics EnqueueRecorder) *Handler {
	return &Handler{Service: svc, Jobs: runner, Perms: perms, Metrics: metrics}
}

type periodPayload struct {
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	WorkingDays int    `json:"working_days"`
}

type calculatePayload struct {
	PeriodID string `json:"period_id"`
	Async    bool   `json:"async"`
}

type adjustmentsPayload struct {
	Bonuses         *decimal.Decimal `json:"bonuses"`
	OtherDeductions *decimal.Decimal `json:"other_deductions"`
	Notes           *string          `json:"notes"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods", h.handleListPeriods)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/periods", h.handleCreatePeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods/{id}", h.handlePeriodSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Put("/periods/{id}/process", h.transition(h.Service.StartProcessing))
		r.With(middleware.RequirePermission(auth.PermPayrollApprove, h.Perms)).Put("/periods/{id}/approve", h.transition(h.Service.Approve))
		r.With(middleware.RequirePermission(auth.PermPayrollApprove, h.Perms)).Put("/periods/{id}/pay", h.transition(h.Service.MarkPaid))
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/periods/{id}/cancel", h.transition(h.Service.Cancel))
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods/{id}/register.xlsx", h.handleExportRegister)

		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/calculate", h.handleCalculate)

		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/records", h.handleListRecords)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/records/{id}", h.handleUpdateRecord)
		r.With(middleware.RequireAnyPermission(h.Perms, auth.PermPayrollRead, auth.PermPayrollSelf)).Get("/records/{id}/pdf", h.handleDownloadPayslip)
		r.With(middleware.RequirePermission(auth.PermPayrollSelf, h.Perms)).Get("/my-payslips", h.handleMyPayslips)
	})
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	periods, total, err := h.Service.ListPeriods(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if periods == nil {
		periods = []payroll.Period{}
	}
	api.Paginated(w, periods, page.Meta(total), reqID)
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload periodPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	v := validation.New()
	in := payroll.CreatePeriodInput{
		Name:        payload.Name,
		StartDate:   shared.Date(v, "start_date", payload.StartDate),
		EndDate:     shared.Date(v, "end_date", payload.EndDate),
		WorkingDays: payload.WorkingDays,
	}
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	period, err := h.Service.CreatePeriod(r.Context(), in)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Created(w, period, reqID)
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	summary, err := h.Service.PeriodSummary(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, summary, reqID)
}

type transitionFunc func(ctx context.Context, periodID, actorID string) (payroll.Period, error)

func (h *Handler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		id, err := shared.URLID(r, "id")
		if err != nil {
			api.FromError(w, err, reqID)
			return
		}
		user, _ := middleware.GetUser(r.Context())
		period, err := fn(r.Context(), id, user.UserID)
		if err != nil {
			api.FromError(w, err, reqID)
			return
		}
		api.Success(w, period, reqID)
	}
}

// handleCalculate runs the calculation inline, or on the job worker when
// async is set, in which case the caller polls /jobs/{id}.
func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload calculatePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	v := validation.New()
	periodID := shared.RequiredUUID(v, "period_id", payload.PeriodID)
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	user, _ := middleware.GetUser(r.Context())

	if payload.Async {
		period, err := h.Service.GetPeriod(r.Context(), periodID)
		if err != nil {
			api.FromError(w, err, reqID)
			return
		}
		if !period.Status.Calculable() {
			api.FromError(w, fmt.Errorf("%w: period is %s", payroll.ErrPeriodLocked, period.Status), reqID)
			return
		}
		runID, err := h.Jobs.Enqueue(r.Context(), jobs.JobPayrollCalculation, user.UserID, func(ctx context.Context) (any, error) {
			return h.Service.Calculate(ctx, periodID)
		})
		if h.Metrics != nil {
			h.Metrics.RecordEnqueue(jobs.JobPayrollCalculation, err)
		}
		if err != nil {
			api.FromError(w, err, reqID)
			return
		}
		api.Accepted(w, map[string]string{"job_id": runID, "period_id": periodID, "status": jobs.StatusQueued}, reqID)
		return
	}

	var result payroll.CalculationResult
	runID, _, err := h.Jobs.RunNow(r.Context(), jobs.JobPayrollCalculation, user.UserID, func(ctx context.Context) (any, error) {
		var err error
		result, err = h.Service.Calculate(ctx, periodID)
		return result, err
	})
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if runID != "" {
		w.Header().Set("X-Job-ID", runID)
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := validation.New()
	filter := payroll.RecordFilter{
		PeriodID:   shared.OptionalUUID(v, "period_id", r.URL.Query().Get("period_id")),
		EmployeeID: shared.OptionalUUID(v, "employee_id", r.URL.Query().Get("employee_id")),
	}
	if err := v.Err(); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	records, total, err := h.Service.ListRecords(r.Context(), filter)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if records == nil {
		records = []payroll.Record{}
	}
	api.Paginated(w, records, page.Meta(total), reqID)
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	var payload adjustmentsPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	rec, err := h.Service.UpdateRecordAdjustments(r.Context(), id, payroll.Adjustments{
		Bonuses:         payload.Bonuses,
		OtherDeductions: payload.OtherDeductions,
		Notes:           payload.Notes,
	})
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, rec, reqID)
}

func (h *Handler) handleMyPayslips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	records, err := h.Service.MyPayslips(r.Context(), user.UserID)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	rec, err := h.Service.GetRecord(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	if !h.canReadRecord(w, r, rec) {
		return
	}

	pdf, err := payroll.RenderPayslipPDF(rec)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	code := rec.EmployeeID
	if rec.Employee != nil && rec.Employee.EmployeeCode != "" {
		code = rec.Employee.EmployeeCode
	}
	filename := fmt.Sprintf("payslip-%s-%s.pdf", code, rec.Period.StartDate.Format("2006-01"))
	writeAttachment(w, "application/pdf", filename, pdf)
}

// canReadRecord lets payroll readers see any record and self-service callers
// only their own.
func (h *Handler) canReadRecord(w http.ResponseWriter, r *http.Request, rec payroll.Record) bool {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	full, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermPayrollRead)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", reqID)
		return false
	}
	if full {
		return true
	}
	owns, err := h.Service.OwnsRecord(r.Context(), user.UserID, rec)
	if err != nil {
		api.FromError(w, err, reqID)
		return false
	}
	if !owns {
		api.Fail(w, http.StatusForbidden, "forbidden", "payslip belongs to another employee", reqID)
		return false
	}
	return true
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := shared.URLID(r, "id")
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	period, err := h.Service.GetPeriod(r.Context(), id)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	records, _, err := h.Service.ListRecords(r.Context(), payroll.RecordFilter{PeriodID: id})
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	book, err := payroll.RenderRegisterXLSX(period, records)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	filename := fmt.Sprintf("payroll-register-%s.xlsx", period.StartDate.Format(time.DateOnly))
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, book)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
