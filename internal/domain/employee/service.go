package employee

import (
	"context"
	"net/mail"
	"strings"

	"github.com/openhrm/hrm/internal/platform/validation"
)

type EmployeeStore interface {
	Get(ctx context.Context, id string) (Employee, error)
	FindByUserID(ctx context.Context, userID string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	List(ctx context.Context, filter Filter) ([]Employee, error)
	Create(ctx context.Context, in CreateInput) (Employee, error)
	UpdateStatus(ctx context.Context, id, status string) (Employee, error)
}

type Service struct {
	store EmployeeStore
}

func NewService(store EmployeeStore) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) FindByUserID(ctx context.Context, userID string) (Employee, error) {
	return s.store.FindByUserID(ctx, userID)
}

func (s *Service) ListActive(ctx context.Context) ([]Employee, error) {
	return s.store.ListActive(ctx)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Employee, error) {
	if filter.Status != "" {
		v := validation.New()
		v.Enum("status", filter.Status, Statuses...)
		if err := v.Err(); err != nil {
			return nil, err
		}
	}
	return s.store.List(ctx, filter)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Employee, error) {
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	v := validation.New()
	v.Required("employee_code", in.EmployeeCode)
	v.Required("first_name", in.FirstName)
	v.Required("last_name", in.LastName)
	if _, err := mail.ParseAddress(in.Email); err != nil {
		v.Add("email", "must be a valid email address")
	}
	if err := v.Err(); err != nil {
		return Employee{}, err
	}
	return s.store.Create(ctx, in)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Employee, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	v := validation.New()
	v.Enum("employment_status", status, Statuses...)
	if err := v.Err(); err != nil {
		return Employee{}, err
	}
	return s.store.UpdateStatus(ctx, id, status)
}
