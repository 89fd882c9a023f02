package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/platform/validation"
	"github.com/openhrm/hrm/internal/requestctx"
)

// Observer receives one call per calculation attempt.
type Observer interface {
	ObserveCalculation(outcome string, elapsed time.Duration, skipped int)
}

type ServiceConfig struct {
	Policy   Policy
	Timeout  time.Duration
	Observer Observer
	Now      func() time.Time
}

const adjustmentLockWait = 5 * time.Second

type Service struct {
	store    StoreAPI
	policy   Policy
	timeout  time.Duration
	observer Observer
	now      func() time.Time
}

func NewService(store StoreAPI, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Policy.StandardDailyHours.IsZero() {
		cfg.Policy = DefaultPolicy()
	}
	return &Service{store: store, policy: cfg.Policy, timeout: cfg.Timeout, observer: cfg.Observer, now: cfg.Now}
}

func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) CreatePeriod(ctx context.Context, in CreatePeriodInput) (Period, error) {
	in.Name = strings.TrimSpace(in.Name)
	v := validation.New()
	v.Required("name", in.Name)
	v.RequiredDate("start_date", in.StartDate)
	v.RequiredDate("end_date", in.EndDate)
	v.DateOrder("start_date", in.StartDate, "end_date", in.EndDate)
	if in.WorkingDays < 0 {
		v.Add("working_days", "must be at least 1")
	}
	if span := calendarDays(in.StartDate, in.EndDate); span > 0 && in.WorkingDays > span {
		v.Add("working_days", "must not exceed the "+strconv.Itoa(span)+" calendar days in the period")
	}
	if err := v.Err(); err != nil {
		return Period{}, err
	}
	if in.WorkingDays == 0 {
		in.WorkingDays = WorkingDaysBetween(in.StartDate, in.EndDate)
		if in.WorkingDays == 0 {
			return Period{}, validation.Errors{{Field: "working_days", Reason: "range has no weekdays; set working_days explicitly"}}
		}
	}
	return s.store.CreatePeriod(ctx, in)
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]Period, int, error) {
	total, err := s.store.CountPeriods(ctx)
	if err != nil {
		return nil, 0, err
	}
	periods, err := s.store.ListPeriods(ctx, limit, offset)
	return periods, total, err
}

func (s *Service) GetPeriod(ctx context.Context, id string) (Period, error) {
	return s.store.GetPeriod(ctx, id)
}

func (s *Service) PeriodSummary(ctx context.Context, id string) (PeriodSummary, error) {
	period, err := s.store.GetPeriod(ctx, id)
	if err != nil {
		return PeriodSummary{}, err
	}
	records, err := s.store.ListRecords(ctx, RecordFilter{PeriodID: id})
	if err != nil {
		return PeriodSummary{}, err
	}
	out := PeriodSummary{Period: period, RecordCount: len(records), ByStatus: map[string]int{}}
	for _, rec := range records {
		out.ByStatus[string(rec.Status)]++
	}
	return out, nil
}

// Calculate (re)computes one record per active employee for the period and
// refreshes the period totals, all in a single transaction. Employees without
// a covering salary structure are reported in Skipped rather than failing the run.
func (s *Service) Calculate(ctx context.Context, periodID string) (CalculationResult, error) {
	started := s.now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var result CalculationResult
	err := s.store.WithinTx(ctx, func(tx StoreAPI) error {
		var err error
		result, err = s.calculate(ctx, tx, periodID)
		return err
	})
	elapsed := s.now().Sub(started)
	s.observe(err, elapsed, len(result.Skipped))
	if err != nil {
		return CalculationResult{}, err
	}

	logger := slog.With(requestctx.LogAttrs(ctx)...).With("periodId", periodID)
	for _, sk := range result.Skipped {
		logger.Warn("payroll employee skipped", "employeeId", sk.EmployeeID, "reason", sk.Reason)
	}
	logger.Info("payroll calculated",
		"created", result.RecordsCreated,
		"updated", result.RecordsUpdated,
		"removed", result.RecordsRemoved,
		"skipped", len(result.Skipped),
		"duration", elapsed,
	)
	return result, nil
}

func (s *Service) calculate(ctx context.Context, tx StoreAPI, periodID string) (CalculationResult, error) {
	period, err := tx.LockPeriod(ctx, periodID)
	if err != nil {
		return CalculationResult{}, err
	}
	if !period.Status.Calculable() {
		return CalculationResult{}, fmt.Errorf("%w: period is %s", ErrPeriodLocked, period.Status)
	}

	employees, err := tx.ActiveEmployees(ctx)
	if err != nil {
		return CalculationResult{}, fmt.Errorf("load active employees: %w", err)
	}
	covering, err := tx.CoveringStructures(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return CalculationResult{}, fmt.Errorf("load salary structures: %w", err)
	}
	structures := salary.GroupByEmployee(covering)

	existingRows, err := tx.ListRecords(ctx, RecordFilter{PeriodID: period.ID})
	if err != nil {
		return CalculationResult{}, fmt.Errorf("load existing records: %w", err)
	}
	existing := make(map[string]Record, len(existingRows))
	for _, rec := range existingRows {
		existing[rec.EmployeeID] = rec
	}

	result := CalculationResult{PeriodID: period.ID, Skipped: []SkippedEmployee{}}
	processed := make(map[string]bool, len(employees))
	for _, emp := range employees {
		st, ok := salary.Pick(structures[emp.ID], period.StartDate, period.EndDate)
		if !ok {
			result.Skipped = append(result.Skipped, SkippedEmployee{
				EmployeeID:   emp.ID,
				EmployeeName: emp.FullName(),
				Reason:       SkipNoSalaryStructure,
			})
			continue
		}

		rows, err := tx.AttendanceInRange(ctx, emp.ID, period.StartDate, period.EndDate)
		if err != nil {
			return CalculationResult{}, fmt.Errorf("load attendance for %s: %w", emp.ID, err)
		}

		rec, had := existing[emp.ID]
		if !had {
			rec = Record{
				EmployeeID:      emp.ID,
				PayrollPeriodID: period.ID,
				Status:          RecordDraft,
				Bonuses:         decimal.Zero,
				OtherDeductions: decimal.Zero,
			}
		}
		rec.Currency = st.Currency
		rec.apply(Compute(s.policy, Inputs{
			Structure:       st,
			Attendance:      attendance.Summarize(rows),
			WorkingDays:     period.WorkingDays,
			Bonuses:         rec.Bonuses,
			OtherDeductions: rec.OtherDeductions,
		}))

		if _, inserted, err := tx.UpsertRecord(ctx, rec); err != nil {
			return CalculationResult{}, fmt.Errorf("save record for %s: %w", emp.ID, err)
		} else if inserted {
			result.RecordsCreated++
		} else {
			result.RecordsUpdated++
		}
		processed[emp.ID] = true
	}

	// Records of employees that are no longer payable in this period would
	// otherwise keep counting towards the totals.
	var stale []string
	for employeeID, rec := range existing {
		if !processed[employeeID] {
			stale = append(stale, rec.ID)
		}
	}
	if err := tx.DeleteRecords(ctx, stale); err != nil {
		return CalculationResult{}, fmt.Errorf("remove stale records: %w", err)
	}
	result.RecordsRemoved = len(stale)

	totals, err := tx.SumTotals(ctx, period.ID)
	if err != nil {
		return CalculationResult{}, fmt.Errorf("sum totals: %w", err)
	}
	updated, err := tx.SaveCalculation(ctx, period.ID, totals, s.now())
	if err != nil {
		return CalculationResult{}, fmt.Errorf("save period totals: %w", err)
	}
	result.Totals = totals
	result.Version = updated.Version
	return result, nil
}

func (s *Service) observe(err error, elapsed time.Duration, skipped int) {
	if s.observer == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrCalculationInProgress):
		outcome = "conflict"
	case errors.Is(err, ErrPeriodLocked), errors.Is(err, ErrPeriodNotFound):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	s.observer.ObserveCalculation(outcome, elapsed, skipped)
}

func (s *Service) StartProcessing(ctx context.Context, periodID, actorID string) (Period, error) {
	return s.transition(ctx, periodID, PeriodProcessing, actorID)
}

// Approve moves a draft or processing period to approved and its draft records with it.
func (s *Service) Approve(ctx context.Context, periodID, approverID string) (Period, error) {
	return s.transition(ctx, periodID, PeriodApproved, approverID)
}

func (s *Service) MarkPaid(ctx context.Context, periodID, actorID string) (Period, error) {
	return s.transition(ctx, periodID, PeriodPaid, actorID)
}

func (s *Service) Cancel(ctx context.Context, periodID, actorID string) (Period, error) {
	return s.transition(ctx, periodID, PeriodCancelled, actorID)
}

func (s *Service) transition(ctx context.Context, periodID string, to PeriodStatus, actorID string) (Period, error) {
	var out Period
	err := s.store.WithinTx(ctx, func(tx StoreAPI) error {
		period, err := tx.LockPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if !period.Status.CanTransition(to) {
			return fmt.Errorf("%w: %s to %s", ErrPeriodInvalidTransition, period.Status, to)
		}
		out, err = tx.SetPeriodStatus(ctx, periodID, to, actorID, s.now())
		if err != nil {
			return err
		}
		if recStatus, ok := recordStatusFor(to); ok {
			from := []RecordStatus{RecordDraft}
			if to == PeriodPaid {
				from = append(from, RecordApproved)
			}
			if err := tx.SetRecordStatuses(ctx, periodID, from, recStatus); err != nil {
				return fmt.Errorf("update record statuses: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	slog.Info("payroll period status changed",
		append(requestctx.LogAttrs(ctx), "periodId", periodID, "status", to, "actorId", actorID)...)
	return out, nil
}

func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, int, error) {
	total, err := s.store.CountRecords(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.store.ListRecords(ctx, filter)
	return records, total, err
}

func (s *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	period, err := s.store.GetPeriod(ctx, rec.PayrollPeriodID)
	if err != nil {
		return Record{}, err
	}
	rec.Period = &period
	return rec, nil
}

// MyPayslips lists the records of the employee linked to userID.
func (s *Service) MyPayslips(ctx context.Context, userID string) ([]Record, error) {
	emp, err := s.store.FindEmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, RecordFilter{EmployeeID: emp.ID})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// OwnsRecord reports whether the record belongs to the employee linked to userID.
func (s *Service) OwnsRecord(ctx context.Context, userID string, rec Record) (bool, error) {
	emp, err := s.store.FindEmployeeByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return emp.ID == rec.EmployeeID, nil
}

// UpdateRecordAdjustments sets the manual bonus and deduction inputs of a record
// and recomputes it and its period's totals.
func (s *Service) UpdateRecordAdjustments(ctx context.Context, recordID string, adj Adjustments) (Record, error) {
	v := validation.New()
	if adj.Bonuses != nil {
		v.NonNegative("bonuses", *adj.Bonuses)
	}
	if adj.OtherDeductions != nil {
		v.NonNegative("other_deductions", *adj.OtherDeductions)
	}
	if err := v.Err(); err != nil {
		return Record{}, err
	}

	ref, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return Record{}, err
	}

	var out Record
	err = s.store.WithinTx(ctx, func(tx StoreAPI) error {
		// Edits to one period queue behind each other so totals stay in step;
		// the record is read only once the lock is held.
		period, err := tx.LockPeriodWait(ctx, ref.PayrollPeriodID, adjustmentLockWait)
		if err != nil {
			return err
		}
		rec, err := tx.GetRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if !period.Status.Calculable() {
			return fmt.Errorf("%w: period is %s", ErrPeriodLocked, period.Status)
		}

		covering, err := tx.CoveringStructures(ctx, period.StartDate, period.EndDate)
		if err != nil {
			return err
		}
		st, ok := salary.Pick(salary.GroupByEmployee(covering)[rec.EmployeeID], period.StartDate, period.EndDate)
		if !ok {
			return fmt.Errorf("%w: recalculate the period first", salary.ErrStructureNotFound)
		}
		rows, err := tx.AttendanceInRange(ctx, rec.EmployeeID, period.StartDate, period.EndDate)
		if err != nil {
			return err
		}

		if adj.Bonuses != nil {
			rec.Bonuses = *adj.Bonuses
		}
		if adj.OtherDeductions != nil {
			rec.OtherDeductions = *adj.OtherDeductions
		}
		if adj.Notes != nil {
			rec.Notes = strings.TrimSpace(*adj.Notes)
		}
		rec.apply(Compute(s.policy, Inputs{
			Structure:       st,
			Attendance:      attendance.Summarize(rows),
			WorkingDays:     period.WorkingDays,
			Bonuses:         rec.Bonuses,
			OtherDeductions: rec.OtherDeductions,
		}))

		if out, err = tx.UpdateRecord(ctx, rec); err != nil {
			return err
		}
		totals, err := tx.SumTotals(ctx, period.ID)
		if err != nil {
			return err
		}
		_, err = tx.SaveTotals(ctx, period.ID, totals)
		return err
	})
	return out, err
}
