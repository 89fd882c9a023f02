package payroll

import (
	"context"
	"time"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/domain/salary"
)

type StoreAPI interface {
	// WithinTx runs fn against a store bound to one transaction. fn's error
	// rolls every write back.
	WithinTx(ctx context.Context, fn func(StoreAPI) error) error

	CreatePeriod(ctx context.Context, in CreatePeriodInput) (Period, error)
	GetPeriod(ctx context.Context, id string) (Period, error)
	// LockPeriod takes the period row lock without waiting and fails with
	// ErrCalculationInProgress when another transaction holds it.
	LockPeriod(ctx context.Context, id string) (Period, error)
	// LockPeriodWait queues for the period row lock for at most wait and
	// fails with ErrPeriodBusy when it is not granted in time.
	LockPeriodWait(ctx context.Context, id string, wait time.Duration) (Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]Period, error)
	CountPeriods(ctx context.Context) (int, error)
	SetPeriodStatus(ctx context.Context, id string, status PeriodStatus, actorID string, at time.Time) (Period, error)
	SaveCalculation(ctx context.Context, id string, totals Totals, at time.Time) (Period, error)
	SaveTotals(ctx context.Context, id string, totals Totals) (Period, error)

	GetRecord(ctx context.Context, id string) (Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	CountRecords(ctx context.Context, filter RecordFilter) (int, error)
	// UpsertRecord writes by (employee_id, payroll_period_id) and reports whether a row was inserted.
	UpsertRecord(ctx context.Context, rec Record) (Record, bool, error)
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	DeleteRecords(ctx context.Context, ids []string) error
	SetRecordStatuses(ctx context.Context, periodID string, from []RecordStatus, to RecordStatus) error
	SumTotals(ctx context.Context, periodID string) (Totals, error)

	ActiveEmployees(ctx context.Context) ([]employee.Employee, error)
	FindEmployeeByUserID(ctx context.Context, userID string) (employee.Employee, error)
	CoveringStructures(ctx context.Context, start, end time.Time) ([]salary.Structure, error)
	AttendanceInRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Record, error)
}
