package payroll

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/employee"
	"github.com/openhrm/hrm/internal/domain/salary"
)

var errInjected = errors.New("injected failure")

type fakeStore struct {
	periods    map[string]Period
	records    map[string]Record
	employees  []employee.Employee
	structures []salary.Structure
	attendance []attendance.Record

	busyPeriods   map[string]bool
	onLockWait    func()
	failUpsertFor string
	seq           int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		periods:     map[string]Period{},
		records:     map[string]Record{},
		busyPeriods: map[string]bool{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return prefix + "-" + strconv.Itoa(f.seq)
}

func (f *fakeStore) WithinTx(_ context.Context, fn func(StoreAPI) error) error {
	periods := make(map[string]Period, len(f.periods))
	for k, v := range f.periods {
		periods[k] = v
	}
	records := make(map[string]Record, len(f.records))
	for k, v := range f.records {
		records[k] = v
	}
	if err := fn(f); err != nil {
		f.periods, f.records = periods, records
		return err
	}
	return nil
}

func (f *fakeStore) CreatePeriod(_ context.Context, in CreatePeriodInput) (Period, error) {
	p := Period{
		ID:              f.nextID("period"),
		Name:            in.Name,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		WorkingDays:     in.WorkingDays,
		Status:          PeriodDraft,
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	f.periods[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetPeriod(_ context.Context, id string) (Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakeStore) LockPeriod(ctx context.Context, id string) (Period, error) {
	if f.busyPeriods[id] {
		return Period{}, ErrCalculationInProgress
	}
	return f.GetPeriod(ctx, id)
}

func (f *fakeStore) LockPeriodWait(ctx context.Context, id string, _ time.Duration) (Period, error) {
	if f.busyPeriods[id] {
		return Period{}, ErrPeriodBusy
	}
	if f.onLockWait != nil {
		f.onLockWait()
	}
	return f.GetPeriod(ctx, id)
}

func (f *fakeStore) ListPeriods(_ context.Context, limit, offset int) ([]Period, error) {
	var out []Period
	for _, p := range f.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountPeriods(_ context.Context) (int, error) {
	return len(f.periods), nil
}

func (f *fakeStore) SetPeriodStatus(_ context.Context, id string, status PeriodStatus, actorID string, at time.Time) (Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	p.Status = status
	switch status {
	case PeriodApproved:
		p.ApprovedBy = &actorID
		p.ApprovedAt = &at
	case PeriodPaid:
		p.PaidAt = &at
	}
	f.periods[id] = p
	return p, nil
}

func (f *fakeStore) SaveCalculation(_ context.Context, id string, totals Totals, at time.Time) (Period, error) {
	p := f.periods[id]
	p.TotalGross, p.TotalDeductions, p.TotalNet = totals.Gross, totals.Deductions, totals.Net
	p.Version++
	p.CalculatedAt = &at
	if p.Status == PeriodDraft {
		p.Status = PeriodProcessing
	}
	f.periods[id] = p
	return p, nil
}

func (f *fakeStore) SaveTotals(_ context.Context, id string, totals Totals) (Period, error) {
	p := f.periods[id]
	p.TotalGross, p.TotalDeductions, p.TotalNet = totals.Gross, totals.Deductions, totals.Net
	f.periods[id] = p
	return p, nil
}

func (f *fakeStore) GetRecord(_ context.Context, id string) (Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeStore) ListRecords(_ context.Context, filter RecordFilter) ([]Record, error) {
	var out []Record
	for _, rec := range f.records {
		if filter.PeriodID != "" && rec.PayrollPeriodID != filter.PeriodID {
			continue
		}
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakeStore) CountRecords(ctx context.Context, filter RecordFilter) (int, error) {
	recs, err := f.ListRecords(ctx, filter)
	return len(recs), err
}

func (f *fakeStore) UpsertRecord(_ context.Context, rec Record) (Record, bool, error) {
	if f.failUpsertFor == rec.EmployeeID {
		return Record{}, false, errInjected
	}
	for id, existing := range f.records {
		if existing.EmployeeID == rec.EmployeeID && existing.PayrollPeriodID == rec.PayrollPeriodID {
			rec.ID = id
			rec.Status = existing.Status
			rec.Notes = existing.Notes
			f.records[id] = rec
			return rec, false, nil
		}
	}
	rec.ID = f.nextID("record")
	f.records[rec.ID] = rec
	return rec, true, nil
}

func (f *fakeStore) UpdateRecord(_ context.Context, rec Record) (Record, error) {
	if _, ok := f.records[rec.ID]; !ok {
		return Record{}, ErrRecordNotFound
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStore) DeleteRecords(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeStore) SetRecordStatuses(_ context.Context, periodID string, from []RecordStatus, to RecordStatus) error {
	for id, rec := range f.records {
		if rec.PayrollPeriodID != periodID {
			continue
		}
		for _, st := range from {
			if rec.Status == st {
				rec.Status = to
				f.records[id] = rec
				break
			}
		}
	}
	return nil
}

func (f *fakeStore) SumTotals(_ context.Context, periodID string) (Totals, error) {
	t := Totals{Gross: decimal.Zero, Deductions: decimal.Zero, Net: decimal.Zero}
	for _, rec := range f.records {
		if rec.PayrollPeriodID == periodID {
			t = t.add(rec)
		}
	}
	return t, nil
}

func (f *fakeStore) ActiveEmployees(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.EmploymentStatus == employee.StatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindEmployeeByUserID(_ context.Context, userID string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeStore) CoveringStructures(_ context.Context, start, end time.Time) ([]salary.Structure, error) {
	var out []salary.Structure
	for _, s := range f.structures {
		if s.Covers(start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) AttendanceInRange(_ context.Context, employeeID string, start, end time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, a := range f.attendance {
		if a.EmployeeID == employeeID && !a.RecordDate.Before(start) && !a.RecordDate.After(end) {
			out = append(out, a)
		}
	}
	return out, nil
}
