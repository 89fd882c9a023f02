package payroll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/platform/db"
)

const (
	pgLockNotAvailable = "55P03"
	pgInvalidText      = "22P02"
)

const periodColumns = `
  id, name, start_date, end_date, status, working_days, total_gross, total_deductions, total_net,
  approved_by::text, approved_at, paid_at, version, calculated_at, created_at`

const recordColumns = `
  r.id, r.employee_id, r.payroll_period_id, r.basic_salary, r.allowances, r.bonuses, r.overtime_pay,
  r.gross_salary, r.tax_deduction, r.insurance_deduction, r.other_deductions, r.total_deductions,
  r.net_salary, r.currency, r.days_worked, r.days_absent, r.overtime_hours, r.status, r.notes, r.updated_at,
  e.employee_code, e.first_name || ' ' || e.last_name, e.email`

type Store struct {
	DB   db.Querier
	Pool db.TxBeginner
}

func NewStore(pool db.Pool) *Store {
	return &Store{DB: pool, Pool: pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(StoreAPI) error) error {
	if s.Pool == nil {
		return fn(s)
	}
	return db.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		return fn(&Store{DB: tx})
	})
}

func notFoundOr(err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidText {
		return notFound
	}
	return err
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	var status string
	err := row.Scan(
		&p.ID, &p.Name, &p.StartDate, &p.EndDate, &status, &p.WorkingDays, &p.TotalGross, &p.TotalDeductions, &p.TotalNet,
		&p.ApprovedBy, &p.ApprovedAt, &p.PaidAt, &p.Version, &p.CalculatedAt, &p.CreatedAt,
	)
	if err != nil {
		return Period{}, notFoundOr(err, ErrPeriodNotFound)
	}
	if p.Status, err = ParsePeriodStatus(status); err != nil {
		return Period{}, err
	}
	return p, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var status string
	emp := EmployeeRef{}
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.PayrollPeriodID, &r.BasicSalary, &r.Allowances, &r.Bonuses, &r.OvertimePay,
		&r.GrossSalary, &r.TaxDeduction, &r.InsuranceDeduction, &r.OtherDeductions, &r.TotalDeductions,
		&r.NetSalary, &r.Currency, &r.DaysWorked, &r.DaysAbsent, &r.OvertimeHours, &status, &r.Notes, &r.UpdatedAt,
		&emp.EmployeeCode, &emp.FullName, &emp.Email,
	)
	if err != nil {
		return Record{}, notFoundOr(err, ErrRecordNotFound)
	}
	if r.Status, err = ParseRecordStatus(status); err != nil {
		return Record{}, err
	}
	emp.ID = r.EmployeeID
	r.Employee = &emp
	return r, nil
}

func (s *Store) CreatePeriod(ctx context.Context, in CreatePeriodInput) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (name, start_date, end_date, working_days)
    VALUES ($1, $2, $3, $4)
    RETURNING `+periodColumns, in.Name, in.StartDate, in.EndDate, in.WorkingDays))
}

func (s *Store) GetPeriod(ctx context.Context, id string) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM payroll_periods WHERE id = $1", id))
}

func (s *Store) LockPeriod(ctx context.Context, id string) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM payroll_periods WHERE id = $1 FOR UPDATE NOWAIT", id))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return Period{}, ErrCalculationInProgress
	}
	return p, err
}

func (s *Store) LockPeriodWait(ctx context.Context, id string, wait time.Duration) (Period, error) {
	if _, err := s.DB.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", strconv.FormatInt(wait.Milliseconds(), 10)); err != nil {
		return Period{}, fmt.Errorf("set lock timeout: %w", err)
	}
	p, err := scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM payroll_periods WHERE id = $1 FOR UPDATE", id))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return Period{}, ErrPeriodBusy
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+periodColumns+`
    FROM payroll_periods
    ORDER BY start_date DESC, created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CountPeriods(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_periods").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) SetPeriodStatus(ctx context.Context, id string, status PeriodStatus, actorID string, at time.Time) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, `
    UPDATE payroll_periods
    SET status = $2,
        approved_by = CASE WHEN $2 = 'approved' THEN $3::uuid ELSE approved_by END,
        approved_at = CASE WHEN $2 = 'approved' THEN $4 ELSE approved_at END,
        paid_at = CASE WHEN $2 = 'paid' THEN $4 ELSE paid_at END,
        updated_at = now()
    WHERE id = $1
    RETURNING `+periodColumns, id, string(status), nullIfEmpty(actorID), at))
}

func (s *Store) SaveCalculation(ctx context.Context, id string, totals Totals, at time.Time) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, `
    UPDATE payroll_periods
    SET total_gross = $2, total_deductions = $3, total_net = $4,
        version = version + 1, calculated_at = $5,
        status = CASE WHEN status = 'draft' THEN 'processing' ELSE status END,
        updated_at = now()
    WHERE id = $1
    RETURNING `+periodColumns, id, totals.Gross, totals.Deductions, totals.Net, at))
}

func (s *Store) SaveTotals(ctx context.Context, id string, totals Totals) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, `
    UPDATE payroll_periods
    SET total_gross = $2, total_deductions = $3, total_net = $4, updated_at = now()
    WHERE id = $1
    RETURNING `+periodColumns, id, totals.Gross, totals.Deductions, totals.Net))
}

func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.id = $1
  `, id))
}

func recordWhere(filter RecordFilter) (string, []any) {
	var where []string
	var args []any
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		where = append(where, "r.payroll_period_id = $"+strconv.Itoa(len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where = append(where, "r.employee_id = $"+strconv.Itoa(len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *Store) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	where, args := recordWhere(filter)
	query := `
    SELECT ` + recordColumns + `
    FROM payroll_records r
    JOIN employees e ON e.id = r.employee_id
    JOIN payroll_periods p ON p.id = r.payroll_period_id` + where + `
    ORDER BY p.start_date DESC, e.last_name, e.first_name`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, notFoundOr(err, ErrRecordNotFound)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) CountRecords(ctx context.Context, filter RecordFilter) (int, error) {
	where, args := recordWhere(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_records r"+where, args...).Scan(&total); err != nil {
		return 0, notFoundOr(err, ErrRecordNotFound)
	}
	return total, nil
}

// UpsertRecord leaves status and notes of an existing row untouched.
func (s *Store) UpsertRecord(ctx context.Context, rec Record) (Record, bool, error) {
	var inserted bool
	var status string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (
      employee_id, payroll_period_id, basic_salary, allowances, bonuses, overtime_pay, gross_salary,
      tax_deduction, insurance_deduction, other_deductions, total_deductions, net_salary, currency,
      days_worked, days_absent, overtime_hours, status, notes
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    ON CONFLICT (employee_id, payroll_period_id) DO UPDATE SET
      basic_salary = EXCLUDED.basic_salary,
      allowances = EXCLUDED.allowances,
      bonuses = EXCLUDED.bonuses,
      overtime_pay = EXCLUDED.overtime_pay,
      gross_salary = EXCLUDED.gross_salary,
      tax_deduction = EXCLUDED.tax_deduction,
      insurance_deduction = EXCLUDED.insurance_deduction,
      other_deductions = EXCLUDED.other_deductions,
      total_deductions = EXCLUDED.total_deductions,
      net_salary = EXCLUDED.net_salary,
      currency = EXCLUDED.currency,
      days_worked = EXCLUDED.days_worked,
      days_absent = EXCLUDED.days_absent,
      overtime_hours = EXCLUDED.overtime_hours,
      updated_at = now()
    RETURNING id, status, (xmax = 0)
  `,
		rec.EmployeeID, rec.PayrollPeriodID, rec.BasicSalary, rec.Allowances, rec.Bonuses, rec.OvertimePay, rec.GrossSalary,
		rec.TaxDeduction, rec.InsuranceDeduction, rec.OtherDeductions, rec.TotalDeductions, rec.NetSalary, rec.Currency,
		rec.DaysWorked, rec.DaysAbsent, rec.OvertimeHours, string(rec.Status), rec.Notes,
	).Scan(&rec.ID, &status, &inserted)
	if err != nil {
		return Record{}, false, err
	}
	if rec.Status, err = ParseRecordStatus(status); err != nil {
		return Record{}, false, err
	}
	return rec, inserted, nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_records SET
      basic_salary = $2, allowances = $3, bonuses = $4, overtime_pay = $5, gross_salary = $6,
      tax_deduction = $7, insurance_deduction = $8, other_deductions = $9, total_deductions = $10,
      net_salary = $11, days_worked = $12, days_absent = $13, overtime_hours = $14, notes = $15,
      updated_at = now()
    WHERE id = $1
  `, rec.ID, rec.BasicSalary, rec.Allowances, rec.Bonuses, rec.OvertimePay, rec.GrossSalary,
		rec.TaxDeduction, rec.InsuranceDeduction, rec.OtherDeductions, rec.TotalDeductions,
		rec.NetSalary, rec.DaysWorked, rec.DaysAbsent, rec.OvertimeHours, rec.Notes)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrRecordNotFound
	}
	return s.GetRecord(ctx, rec.ID)
}

func (s *Store) DeleteRecords(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.DB.Exec(ctx, "DELETE FROM payroll_records WHERE id = ANY($1::uuid[])", ids)
	return err
}

func (s *Store) SetRecordStatuses(ctx context.Context, periodID string, from []RecordStatus, to RecordStatus) error {
	fromRaw := make([]string, len(from))
	for i, st := range from {
		fromRaw[i] = string(st)
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_records SET status = $3, updated_at = now()
    WHERE payroll_period_id = $1 AND status = ANY($2)
  `, periodID, fromRaw, string(to))
	return err
}

func (s *Store) SumTotals(ctx context.Context, periodID string) (Totals, error) {
	var t Totals
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(gross_salary), 0), COALESCE(SUM(total_deductions), 0), COALESCE(SUM(net_salary), 0)
    FROM payroll_records
    WHERE payroll_period_id = $1
  `, periodID).Scan(&t.Gross, &t.Deductions, &t.Net)
	return t, err
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]employee.Employee, error) {
	return employee.NewStore(s.DB).ListActive(ctx)
}

func (s *Store) FindEmployeeByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	return employee.NewStore(s.DB).FindByUserID(ctx, userID)
}

func (s *Store) CoveringStructures(ctx context.Context, start, end time.Time) ([]salary.Structure, error) {
	return (&salary.Store{DB: s.DB}).ListCovering(ctx, start, end)
}

func (s *Store) AttendanceInRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Record, error) {
	return attendance.NewStore(s.DB).ListByEmployeeAndRange(ctx, employeeID, start, end)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
