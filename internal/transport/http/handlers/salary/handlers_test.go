package salaryhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
)

const (
	empID = "11111111-1111-1111-1111-111111111111"
	stID  = "44444444-4444-4444-4444-444444444444"
)

type fakeStructures struct {
	created []salary.CreateInput
	asOf    time.Time
	current *salary.Structure
	endedTo time.Time
}

func (f *fakeStructures) ListForEmployee(context.Context, string) ([]salary.Structure, error) {
	return nil, nil
}

func (f *fakeStructures) CurrentFor(_ context.Context, _ string, asOf time.Time) (salary.Structure, bool, error) {
	f.asOf = asOf
	if f.current == nil {
		return salary.Structure{}, false, nil
	}
	return *f.current, true, nil
}

func (f *fakeStructures) Create(_ context.Context, in salary.CreateInput) (salary.Structure, error) {
	if len(f.created) > 0 {
		return salary.Structure{}, salary.ErrOverlappingStructure
	}
	f.created = append(f.created, in)
	return salary.Structure{ID: stID, EmployeeID: in.EmployeeID, BasicSalary: in.BasicSalary, Active: true}, nil
}

func (f *fakeStructures) Deactivate(_ context.Context, id string) (salary.Structure, error) {
	if id != stID {
		return salary.Structure{}, salary.ErrStructureNotFound
	}
	return salary.Structure{ID: id}, nil
}

func (f *fakeStructures) End(_ context.Context, id string, to time.Time) (salary.Structure, error) {
	if id != stID {
		return salary.Structure{}, salary.ErrStructureNotFound
	}
	f.endedTo = to
	return salary.Structure{ID: id, EffectiveTo: &to, Active: true}, nil
}

func setup(role string) (http.Handler, *fakeStructures) {
	svc := &fakeStructures{}
	h := NewHandler(svc, middleware.StaticPermissions{})
	h.Now = func() time.Time { return time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", RoleName: role})))
		})
	})
	h.RegisterRoutes(r)
	return r, svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreateStructure(t *testing.T) {
	h, svc := setup(auth.RoleHR)
	body := `{"employee_id":"` + empID + `","basic_salary":"5000","housing_allowance":1000,"tax_rate":"10","effective_from":"2024-01-01","effective_to":"2024-12-31"}`
	rec := do(h, http.MethodPost, "/salary-structures", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, svc.created, 1)
	in := svc.created[0]
	assert.True(t, in.BasicSalary.Equal(decimal.NewFromInt(5000)))
	assert.True(t, in.HousingAllowance.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, in.EffectiveTo)
	assert.Equal(t, 2024, in.EffectiveTo.Year())

	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/salary-structures", body).Code)
}

func TestCreateStructureRejectsBadInput(t *testing.T) {
	h, svc := setup(auth.RoleHR)
	rec := do(h, http.MethodPost, "/salary-structures", `{"employee_id":"x","effective_from":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created)
}

func TestListRequiresEmployee(t *testing.T) {
	h, _ := setup(auth.RoleHR)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/salary-structures", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/salary-structures?employee_id="+empID, "").Code)
}

func TestCurrentDefaultsToToday(t *testing.T) {
	h, svc := setup(auth.RoleHR)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/salary-structures/current?employee_id="+empID, "").Code)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), svc.asOf)

	svc.current = &salary.Structure{ID: stID}
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/salary-structures/current?employee_id="+empID+"&as_of=2024-01-01", "").Code)
	assert.Equal(t, 1, int(svc.asOf.Month()))
}

func TestDeactivateNeedsWritePermission(t *testing.T) {
	h, _ := setup(auth.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPut, "/salary-structures/"+stID+"/deactivate", "").Code)

	h, _ = setup(auth.RoleHR)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPut, "/salary-structures/"+stID+"/deactivate", "").Code)
}

func TestEndStructure(t *testing.T) {
	h, svc := setup(auth.RoleHR)

	rec := do(h, http.MethodPut, "/salary-structures/"+stID+"/end", `{"effective_to":"2025-06-30"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), svc.endedTo)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/salary-structures/"+stID+"/end", `{}`).Code)
	assert.Equal(t, http.StatusNotFound,
		do(h, http.MethodPut, "/salary-structures/"+empID+"/end", `{"effective_to":"2025-06-30"}`).Code)

	h, _ = setup(auth.RoleEmployee)
	assert.Equal(t, http.StatusForbidden,
		do(h, http.MethodPut, "/salary-structures/"+stID+"/end", `{"effective_to":"2025-06-30"}`).Code)
}
