package attendance

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/platform/db"
	"github.com/openhrm/hrm/internal/platform/validation"
)

const recordColumns = `
  id, employee_id, record_date, clock_in_time, clock_out_time, clock_in_ip, clock_out_ip,
  status, total_hours, overtime_hours, late_minutes, notes, created_at`

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.RecordDate, &rec.ClockIn, &rec.ClockOut, &rec.ClockInIP, &rec.ClockOutIP,
		&rec.Status, &rec.TotalHours, &rec.OvertimeHours, &rec.LateMinutes, &rec.Notes, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrAttendanceNotFound
	}
	return rec, err
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
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

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendances WHERE id = $1", id))
}

func (s *Store) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendances
    WHERE employee_id = $1 AND record_date = $2
  `, employeeID, date))
}

// ListByEmployeeAndRange returns rows whose record_date lies in [start, end], oldest first.
func (s *Store) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendances
    WHERE employee_id = $1 AND record_date BETWEEN $2 AND $3
    ORDER BY record_date
  `, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	var where []string
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where = append(where, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		where = append(where, "record_date = $"+strconv.Itoa(len(args)))
	}
	query := "SELECT " + recordColumns + " FROM attendances"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY record_date DESC, created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	out, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendances (employee_id, record_date, clock_in_time, clock_in_ip, status, overtime_hours, late_minutes, notes)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+recordColumns,
		rec.EmployeeID, rec.RecordDate, rec.ClockIn, rec.ClockInIP, rec.Status, rec.OvertimeHours, rec.LateMinutes, rec.Notes,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return Record{}, ErrDuplicateDay
		case "23503":
			return Record{}, validation.Errors{{Field: "employee_id", Reason: "does not exist"}}
		}
	}
	return out, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM attendances WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttendanceNotFound
	}
	return nil
}

// SetClockOut closes an open row. A row that is already closed matches
// nothing and comes back as ErrAttendanceNotFound.
func (s *Store) SetClockOut(ctx context.Context, id string, at time.Time, ip string, total, overtime decimal.Decimal) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    UPDATE attendances
    SET clock_out_time = $2, clock_out_ip = $3, total_hours = $4, overtime_hours = $5, updated_at = now()
    WHERE id = $1 AND clock_out_time IS NULL
    RETURNING `+recordColumns, id, at, ip, total, overtime))
}

func (s *Store) Update(ctx context.Context, id string, patch Patch) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    UPDATE attendances
    SET status = COALESCE($2, status),
        overtime_hours = COALESCE($3, overtime_hours),
        notes = COALESCE($4, notes),
        updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns, id, patch.Status, patch.OvertimeHours, patch.Notes))
}
