package payroll

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecord(period *Period) Record {
	return Record{
		ID:                 "record-1",
		EmployeeID:         "emp-x",
		PayrollPeriodID:    period.ID,
		BasicSalary:        dec("3000"),
		Allowances:         dec("200"),
		Bonuses:            dec("0"),
		OvertimePay:        dec("0"),
		GrossSalary:        dec("3200"),
		TaxDeduction:       dec("320"),
		InsuranceDeduction: dec("50"),
		OtherDeductions:    dec("0"),
		TotalDeductions:    dec("370"),
		NetSalary:          dec("2830"),
		Currency:           "USD",
		DaysWorked:         20,
		DaysAbsent:         2,
		OvertimeHours:      dec("0"),
		Status:             RecordDraft,
		Notes:              "first run",
		Employee:           &EmployeeRef{ID: "emp-x", EmployeeCode: "E-001", FullName: "Xavier Doe"},
		Period:             period,
	}
}

func samplePeriod() *Period {
	return &Period{
		ID: "period-1", Name: "January 2025", StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 31),
		Status: PeriodProcessing, WorkingDays: 22,
		TotalGross: dec("3200"), TotalDeductions: dec("370"), TotalNet: dec("2830"),
	}
}

func TestRenderPayslipPDF(t *testing.T) {
	out, err := RenderPayslipPDF(sampleRecord(samplePeriod()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	rec := sampleRecord(samplePeriod())
	rec.Period = nil
	_, err = RenderPayslipPDF(rec)
	assert.Error(t, err)
}

func TestRenderRegisterXLSX(t *testing.T) {
	period := samplePeriod()
	out, err := RenderRegisterXLSX(*period, []Record{sampleRecord(period)})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(registerSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, "January 2025", rows[0][1])
	assert.Equal(t, "Employee code", rows[2][0])
	assert.Equal(t, "E-001", rows[3][0])
	assert.Equal(t, "Xavier Doe", rows[3][1])
	assert.Equal(t, "2830", rows[3][14])
	assert.Equal(t, "Totals", rows[5][0])
}
