package salary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/platform/validation"
)

type StructureStore interface {
	WithinTx(ctx context.Context, fn func(StructureStore) error) error
	LockEmployee(ctx context.Context, employeeID string) error
	Get(ctx context.Context, id string) (Structure, error)
	ListForEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]Structure, error)
	ListCovering(ctx context.Context, start, end time.Time) ([]Structure, error)
	Insert(ctx context.Context, in CreateInput) (Structure, error)
	Deactivate(ctx context.Context, id string) (Structure, error)
	SetEffectiveTo(ctx context.Context, id string, to time.Time) (Structure, error)
}

type Service struct {
	store StructureStore
}

func NewService(store StructureStore) *Service {
	return &Service{store: store}
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Structure, error) {
	return s.store.ListForEmployee(ctx, employeeID, false)
}

// CurrentFor resolves the structure in force on asOf, or false when none applies.
func (s *Service) CurrentFor(ctx context.Context, employeeID string, asOf time.Time) (Structure, bool, error) {
	return s.CoveringPeriod(ctx, employeeID, asOf, asOf)
}

func (s *Service) CoveringPeriod(ctx context.Context, employeeID string, start, end time.Time) (Structure, bool, error) {
	candidates, err := s.store.ListForEmployee(ctx, employeeID, true)
	if err != nil {
		return Structure{}, false, err
	}
	st, ok := Pick(candidates, start, end)
	return st, ok, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Structure, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if err := validateCreate(in); err != nil {
		return Structure{}, err
	}

	var created Structure
	err := s.store.WithinTx(ctx, func(tx StructureStore) error {
		if err := tx.LockEmployee(ctx, in.EmployeeID); err != nil {
			return fmt.Errorf("lock employee structures: %w", err)
		}
		existing, err := tx.ListForEmployee(ctx, in.EmployeeID, true)
		if err != nil {
			return err
		}
		var predecessor *Structure
		for i, other := range existing {
			if !overlaps(in.EffectiveFrom, in.EffectiveTo, other.EffectiveFrom, other.EffectiveTo) {
				continue
			}
			if other.EffectiveTo == nil && other.EffectiveFrom.Before(in.EffectiveFrom) && predecessor == nil {
				predecessor = &existing[i]
				continue
			}
			return fmt.Errorf("%w: structure %s", ErrOverlappingStructure, other.ID)
		}
		// An open-ended structure that started earlier is superseded: it now
		// ends the day before the new one takes effect.
		if predecessor != nil {
			if _, err := tx.SetEffectiveTo(ctx, predecessor.ID, in.EffectiveFrom.AddDate(0, 0, -1)); err != nil {
				return fmt.Errorf("close structure %s: %w", predecessor.ID, err)
			}
		}
		created, err = tx.Insert(ctx, in)
		return err
	})
	return created, err
}

// End sets the last day a structure applies. The new end may not run into
// another active structure of the same employee.
func (s *Service) End(ctx context.Context, id string, effectiveTo time.Time) (Structure, error) {
	var ended Structure
	err := s.store.WithinTx(ctx, func(tx StructureStore) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.LockEmployee(ctx, current.EmployeeID); err != nil {
			return fmt.Errorf("lock employee structures: %w", err)
		}
		if current, err = tx.Get(ctx, id); err != nil {
			return err
		}
		if !current.Active {
			return ErrStructureInactive
		}

		v := validation.New()
		v.RequiredDate("effective_to", effectiveTo)
		v.DateOrder("effective_from", current.EffectiveFrom, "effective_to", effectiveTo)
		if err := v.Err(); err != nil {
			return err
		}

		others, err := tx.ListForEmployee(ctx, current.EmployeeID, true)
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID != current.ID && overlaps(current.EffectiveFrom, &effectiveTo, other.EffectiveFrom, other.EffectiveTo) {
				return fmt.Errorf("%w: structure %s", ErrOverlappingStructure, other.ID)
			}
		}
		ended, err = tx.SetEffectiveTo(ctx, id, effectiveTo)
		return err
	})
	return ended, err
}

func (s *Service) Deactivate(ctx context.Context, id string) (Structure, error) {
	return s.store.Deactivate(ctx, id)
}

func validateCreate(in CreateInput) error {
	v := validation.New()
	v.Required("employee_id", in.EmployeeID)
	if !in.BasicSalary.IsPositive() {
		v.Add("basic_salary", "must be greater than zero")
	}
	v.NonNegative("housing_allowance", in.HousingAllowance)
	v.NonNegative("transport_allowance", in.TransportAllowance)
	v.NonNegative("other_allowances", in.OtherAllowances)
	v.NonNegative("social_insurance", in.SocialInsurance)
	v.Between("tax_rate", in.TaxRate, decimal.Zero, decimal.NewFromInt(100))
	if len(in.Currency) != 3 {
		v.Add("currency", "must be a 3-letter ISO code")
	}
	v.RequiredDate("effective_from", in.EffectiveFrom)
	if in.EffectiveTo != nil {
		v.DateOrder("effective_from", in.EffectiveFrom, "effective_to", *in.EffectiveTo)
	}
	return v.Err()
}
