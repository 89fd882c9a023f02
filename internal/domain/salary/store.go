package salary

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/platform/db"
)

const structureColumns = `
  id, employee_id, basic_salary, housing_allowance, transport_allowance, other_allowances,
  tax_rate, social_insurance, currency, effective_from, effective_to, active, created_at`

type Store struct {
	DB   db.Querier
	Pool db.TxBeginner
}

// NewStore builds a store on a pool. Stores created inside WithinTx carry no
// pool and run on the transaction.
func NewStore(pool db.Pool) *Store {
	return &Store{DB: pool, Pool: pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(StructureStore) error) error {
	if s.Pool == nil {
		return fn(s)
	}
	return db.WithTx(ctx, s.Pool, func(tx pgx.Tx) error {
		return fn(&Store{DB: tx})
	})
}

// LockEmployee serialises structure writes for one employee until the
// surrounding transaction ends.
func (s *Store) LockEmployee(ctx context.Context, employeeID string) error {
	_, err := s.DB.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('salary_structures:' || $1::text))", employeeID)
	return err
}

func scanStructure(row pgx.Row) (Structure, error) {
	var st Structure
	err := row.Scan(
		&st.ID, &st.EmployeeID, &st.BasicSalary, &st.HousingAllowance, &st.TransportAllowance, &st.OtherAllowances,
		&st.TaxRate, &st.SocialInsurance, &st.Currency, &st.EffectiveFrom, &st.EffectiveTo, &st.Active, &st.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Structure{}, ErrStructureNotFound
	}
	return st, err
}

func collectStructures(rows pgx.Rows) ([]Structure, error) {
	defer rows.Close()
	var out []Structure
	for rows.Next() {
		st, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Structure, error) {
	return scanStructure(s.DB.QueryRow(ctx, "SELECT "+structureColumns+" FROM salary_structures WHERE id = $1", id))
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]Structure, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+structureColumns+`
    FROM salary_structures
    WHERE employee_id = $1 AND (NOT $2 OR active)
    ORDER BY effective_from DESC, created_at DESC
  `, employeeID, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectStructures(rows)
}

// ListCovering returns every active structure whose effective range meets [start, end].
func (s *Store) ListCovering(ctx context.Context, start, end time.Time) ([]Structure, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+structureColumns+`
    FROM salary_structures
    WHERE active
      AND effective_from <= $2
      AND (effective_to IS NULL OR effective_to >= $1)
    ORDER BY employee_id, effective_from DESC, created_at DESC
  `, start, end)
	if err != nil {
		return nil, err
	}
	return collectStructures(rows)
}

func (s *Store) Insert(ctx context.Context, in CreateInput) (Structure, error) {
	st, err := scanStructure(s.DB.QueryRow(ctx, `
    INSERT INTO salary_structures (
      employee_id, basic_salary, housing_allowance, transport_allowance, other_allowances,
      tax_rate, social_insurance, currency, effective_from, effective_to
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    RETURNING `+structureColumns,
		in.EmployeeID, in.BasicSalary, in.HousingAllowance, in.TransportAllowance, in.OtherAllowances,
		in.TaxRate, in.SocialInsurance, in.Currency, in.EffectiveFrom, in.EffectiveTo,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return Structure{}, employee.ErrEmployeeNotFound
	}
	return st, err
}

func (s *Store) Deactivate(ctx context.Context, id string) (Structure, error) {
	return scanStructure(s.DB.QueryRow(ctx, `
    UPDATE salary_structures SET active = false, updated_at = now()
    WHERE id = $1
    RETURNING `+structureColumns, id))
}

func (s *Store) SetEffectiveTo(ctx context.Context, id string, to time.Time) (Structure, error) {
	return scanStructure(s.DB.QueryRow(ctx, `
    UPDATE salary_structures SET effective_to = $2, updated_at = now()
    WHERE id = $1
    RETURNING `+structureColumns, id, to))
}
