package employee

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openhrm/hrm/internal/platform/db"
)

const employeeColumns = `
  id, COALESCE(user_id::text, ''), employee_code, first_name, last_name, email,
  department, position, employment_status, hire_date, created_at`

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeCode, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.Department, &emp.Position, &emp.EmploymentStatus, &emp.HireDate, &emp.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
}

func (s *Store) FindByUserID(ctx context.Context, userID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE user_id = $1", userID))
}

func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	return s.List(ctx, Filter{Status: StatusActive})
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE ($1 = '' OR employment_status = $1) ORDER BY employee_code"
	args := []any{filter.Status}
	if filter.Limit > 0 {
		query += " LIMIT $2 OFFSET $3"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, in CreateInput) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, employee_code, first_name, last_name, email, department, position, hire_date)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+employeeColumns,
		nullIfEmpty(in.UserID), in.EmployeeCode, in.FirstName, in.LastName, in.Email, in.Department, in.Position, in.HireDate,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Employee{}, ErrDuplicateEmployee
	}
	return emp, err
}

func (s *Store) UpdateStatus(ctx context.Context, id, status string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees SET employment_status = $2, updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns, id, status))
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
