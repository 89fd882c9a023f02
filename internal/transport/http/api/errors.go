package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/domain/payroll"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/platform/jobs"
	"github.com/openhrm/hrm/internal/platform/validation"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{employee.ErrEmployeeNotFound, http.StatusNotFound, "not_found"},
	{payroll.ErrPeriodNotFound, http.StatusNotFound, "not_found"},
	{payroll.ErrRecordNotFound, http.StatusNotFound, "not_found"},
	{salary.ErrStructureNotFound, http.StatusNotFound, "not_found"},
	{attendance.ErrAttendanceNotFound, http.StatusNotFound, "not_found"},
	{jobs.ErrRunNotFound, http.StatusNotFound, "not_found"},

	{payroll.ErrPeriodInvalidTransition, http.StatusConflict, "invalid_transition"},
	{payroll.ErrPeriodLocked, http.StatusConflict, "period_locked"},
	{payroll.ErrCalculationInProgress, http.StatusConflict, "calculation_in_progress"},
	{payroll.ErrPeriodBusy, http.StatusConflict, "period_busy"},
	{salary.ErrOverlappingStructure, http.StatusConflict, "overlapping_structure"},
	{salary.ErrStructureInactive, http.StatusConflict, "conflict"},
	{attendance.ErrAlreadyClockedIn, http.StatusConflict, "conflict"},
	{attendance.ErrNotClockedIn, http.StatusConflict, "conflict"},
	{attendance.ErrDuplicateDay, http.StatusConflict, "conflict"},
	{employee.ErrDuplicateEmployee, http.StatusConflict, "conflict"},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrUserDisabled, http.StatusForbidden, "user_disabled"},

	{jobs.ErrQueueFull, http.StatusServiceUnavailable, "queue_full"},
	{jobs.ErrShuttingDown, http.StatusServiceUnavailable, "shutting_down"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// FromError writes the response for a service error: validation issues as
// 400, known domain errors by the table above, anything else as 500.
func FromError(w http.ResponseWriter, err error, requestID string) {
	if issues, ok := validation.As(err); ok {
		FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
			map[string]any{"fields": issues}, requestID)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			Fail(w, m.status, m.code, err.Error(), requestID)
			return
		}
	}
	slog.Error("unhandled request error", "requestId", requestID, "err", err)
	Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
