package attendancehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/transport/http/middleware"
)

const (
	userID = "u-1"
	empID  = "11111111-1111-1111-1111-111111111111"
	recID  = "33333333-3333-3333-3333-333333333333"
)

type fakeLedger struct {
	open     map[string]bool
	lastIP   string
	lastList attendance.Filter
	patched  attendance.Patch
	recorded []attendance.RecordInput
	deleted  []string
}

func (f *fakeLedger) Get(_ context.Context, id string) (attendance.Record, error) {
	if id != recID {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return attendance.Record{ID: id, EmployeeID: empID, Status: attendance.StatusAbsent}, nil
}

func (f *fakeLedger) Record(_ context.Context, in attendance.RecordInput) (attendance.Record, error) {
	for _, prev := range f.recorded {
		if prev.EmployeeID == in.EmployeeID && prev.RecordDate.Equal(in.RecordDate) {
			return attendance.Record{}, attendance.ErrDuplicateDay
		}
	}
	f.recorded = append(f.recorded, in)
	return attendance.Record{ID: recID, EmployeeID: in.EmployeeID, RecordDate: in.RecordDate, Status: in.Status}, nil
}

func (f *fakeLedger) Delete(_ context.Context, id string) error {
	if id != recID {
		return attendance.ErrAttendanceNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeLedger) List(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	f.lastList = filter
	return nil, nil
}

func (f *fakeLedger) ClockIn(_ context.Context, employeeID string, at time.Time, ip string) (attendance.Record, error) {
	if f.open[employeeID] {
		return attendance.Record{}, attendance.ErrAlreadyClockedIn
	}
	f.open[employeeID] = true
	f.lastIP = ip
	return attendance.Record{ID: recID, EmployeeID: employeeID, ClockIn: &at, Status: attendance.StatusPresent}, nil
}

func (f *fakeLedger) ClockOut(_ context.Context, employeeID string, at time.Time, _ string) (attendance.Record, error) {
	if !f.open[employeeID] {
		return attendance.Record{}, attendance.ErrNotClockedIn
	}
	delete(f.open, employeeID)
	return attendance.Record{ID: recID, EmployeeID: employeeID, ClockOut: &at}, nil
}

func (f *fakeLedger) Update(_ context.Context, id string, patch attendance.Patch) (attendance.Record, error) {
	if id != recID {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	f.patched = patch
	return attendance.Record{ID: id}, nil
}

type fakeLookup map[string]employee.Employee

func (f fakeLookup) FindByUserID(_ context.Context, uid string) (employee.Employee, error) {
	emp, ok := f[uid]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func setup(uid, role string) (http.Handler, *fakeLedger) {
	ledger := &fakeLedger{open: map[string]bool{}}
	h := NewHandler(ledger, fakeLookup{userID: {ID: empID}}, middleware.StaticPermissions{})
	h.Now = func() time.Time { return time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: uid, RoleName: role})))
		})
	})
	h.RegisterRoutes(r)
	return r, ledger
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.9:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClockInOut(t *testing.T) {
	h, ledger := setup(userID, auth.RoleEmployee)

	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/attendance/clock-out", "").Code)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/attendance/clock-in", "").Code)
	assert.Equal(t, "192.0.2.9", ledger.lastIP)
	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/attendance/clock-in", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/attendance/clock-out", "").Code)
}

func TestClockInWithoutEmployeeProfile(t *testing.T) {
	h, _ := setup("someone-else", auth.RoleEmployee)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/attendance/clock-in", "").Code)
}

func TestListFilters(t *testing.T) {
	h, ledger := setup(userID, auth.RoleHR)
	rec := do(h, http.MethodGet, "/attendance?date=2024-01-08&employee_id="+empID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ledger.lastList.Date)
	assert.Equal(t, "2024-01-08", ledger.lastList.Date.Format("2006-01-02"))
	assert.Equal(t, empID, ledger.lastList.EmployeeID)
	assert.JSONEq(t, `[]`, extractData(t, rec))

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/attendance?date=yesterday", "").Code)

	h, _ = setup(userID, auth.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodGet, "/attendance", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/attendance/me", "").Code)
}

func TestUpdatePatch(t *testing.T) {
	h, ledger := setup(userID, auth.RoleHR)
	rec := do(h, http.MethodPut, "/attendance/"+recID, `{"status":"half_day","overtime_hours":"1.5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, ledger.patched.Status)
	assert.Equal(t, attendance.StatusHalfDay, *ledger.patched.Status)
	assert.True(t, ledger.patched.OvertimeHours.Equal(decimal.RequireFromString("1.5")))
	assert.Nil(t, ledger.patched.Notes)
}

func extractData(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return string(body.Data)
}

func TestRecordAbsence(t *testing.T) {
	h, ledger := setup(userID, auth.RoleHR)
	body := `{"employee_id":"` + empID + `","record_date":"2024-01-09","status":"absent","notes":"no show"}`

	rec := do(h, http.MethodPost, "/attendance", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, ledger.recorded, 1)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), ledger.recorded[0].RecordDate)
	assert.Equal(t, "absent", ledger.recorded[0].Status)
	assert.Equal(t, "no show", ledger.recorded[0].Notes)

	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/attendance", body).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(h, http.MethodPost, "/attendance", `{"employee_id":"nope","record_date":"09/01/2024","status":"absent"}`).Code)

	emp, _ := setup(userID, auth.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, do(emp, http.MethodPost, "/attendance", body).Code)
}

func TestGetAndDeleteRecord(t *testing.T) {
	h, ledger := setup(userID, auth.RoleHR)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/attendance/"+recID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/attendance/"+empID, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/attendance/42", "").Code)

	assert.Equal(t, http.StatusOK, do(h, http.MethodDelete, "/attendance/"+recID, "").Code)
	assert.Equal(t, []string{recID}, ledger.deleted)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/attendance/"+empID, "").Code)

	// "/me" stays a self-service route, not an id lookup.
	mine := do(h, http.MethodGet, "/attendance/me", "")
	assert.Equal(t, http.StatusOK, mine.Code)

	emp, _ := setup(userID, auth.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, do(emp, http.MethodDelete, "/attendance/"+recID, "").Code)
}
