package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/platform/config"
	"github.com/openhrm/hrm/internal/platform/validation"
)

type LedgerStore interface {
	Get(ctx context.Context, id string) (Record, error)
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Record, error)
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	SetClockOut(ctx context.Context, id string, at time.Time, ip string, total, overtime decimal.Decimal) (Record, error)
	Update(ctx context.Context, id string, patch Patch) (Record, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store  LedgerStore
	policy config.AttendancePolicy
}

func NewService(store LedgerStore, policy config.AttendancePolicy) *Service {
	return &Service{store: store, policy: policy}
}

func (s *Service) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error) {
	return s.store.ListByEmployeeAndRange(ctx, employeeID, start, end)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Record, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

// Record enters a day on an employee's behalf without clock times, which is
// how absences and leave days reach the ledger.
func (s *Service) Record(ctx context.Context, in RecordInput) (Record, error) {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	v := validation.New()
	v.Required("employee_id", in.EmployeeID)
	v.RequiredDate("record_date", in.RecordDate)
	v.Enum("status", in.Status, Statuses...)
	v.Between("overtime_hours", in.OvertimeHours, decimal.Zero, decimal.NewFromInt(24))
	if !IsWorked(in.Status) && !in.OvertimeHours.IsZero() {
		v.Add("overtime_hours", "must be zero unless the day was worked")
	}
	if err := v.Err(); err != nil {
		return Record{}, err
	}
	return s.store.Insert(ctx, Record{
		EmployeeID:    in.EmployeeID,
		RecordDate:    dateOf(in.RecordDate),
		Status:        in.Status,
		OvertimeHours: in.OvertimeHours,
		Notes:         strings.TrimSpace(in.Notes),
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// ClockIn opens the row for the calendar day of at. Arriving after the shift
// start marks the day late and records by how many minutes.
func (s *Service) ClockIn(ctx context.Context, employeeID string, at time.Time, ip string) (Record, error) {
	day := dateOf(at)
	if _, err := s.store.FindByEmployeeAndDate(ctx, employeeID, day); err == nil {
		return Record{}, ErrAlreadyClockedIn
	} else if !errors.Is(err, ErrAttendanceNotFound) {
		return Record{}, err
	}

	rec := Record{
		EmployeeID: employeeID,
		RecordDate: day,
		ClockIn:    &at,
		ClockInIP:  ip,
		Status:     StatusPresent,
	}
	if late := s.lateMinutes(at); late > 0 {
		rec.Status = StatusLate
		rec.LateMinutes = late
	}
	out, err := s.store.Insert(ctx, rec)
	if errors.Is(err, ErrDuplicateDay) {
		return Record{}, ErrAlreadyClockedIn
	}
	return out, err
}

func (s *Service) ClockOut(ctx context.Context, employeeID string, at time.Time, ip string) (Record, error) {
	rec, err := s.store.FindByEmployeeAndDate(ctx, employeeID, dateOf(at))
	if errors.Is(err, ErrAttendanceNotFound) {
		return Record{}, ErrNotClockedIn
	}
	if err != nil {
		return Record{}, err
	}
	if rec.ClockIn == nil || rec.ClockOut != nil {
		return Record{}, ErrNotClockedIn
	}
	if at.Before(*rec.ClockIn) {
		return Record{}, validation.Errors{{Field: "clock_out_time", Reason: "must be after clock-in"}}
	}

	total, overtime := WorkedHours(*rec.ClockIn, at, s.policy.StandardDailyHours)
	out, err := s.store.SetClockOut(ctx, rec.ID, at, ip, total, overtime)
	if errors.Is(err, ErrAttendanceNotFound) {
		// Closed by a concurrent clock-out after the check above.
		return Record{}, ErrNotClockedIn
	}
	return out, err
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (Record, error) {
	v := validation.New()
	if patch.Status != nil {
		normalized := strings.ToLower(strings.TrimSpace(*patch.Status))
		patch.Status = &normalized
		v.Enum("status", normalized, Statuses...)
	}
	if patch.OvertimeHours != nil {
		v.Between("overtime_hours", *patch.OvertimeHours, decimal.Zero, decimal.NewFromInt(24))
	}
	if err := v.Err(); err != nil {
		return Record{}, err
	}
	return s.store.Update(ctx, id, patch)
}

func (s *Service) lateMinutes(at time.Time) int {
	shift, err := time.Parse("15:04", s.policy.ShiftStart)
	if err != nil {
		return 0
	}
	start := time.Date(at.Year(), at.Month(), at.Day(), shift.Hour(), shift.Minute(), 0, 0, at.Location())
	if !at.After(start) {
		return 0
	}
	return int(at.Sub(start) / time.Minute)
}

// WorkedHours returns the hours between in and out rounded to 2dp and the
// share of them beyond the standard day.
func WorkedHours(in, out time.Time, standardDaily decimal.Decimal) (total, overtime decimal.Decimal) {
	total = decimal.NewFromFloat(out.Sub(in).Hours()).Round(2)
	overtime = total.Sub(standardDaily)
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}
	return total, overtime.Round(2)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
