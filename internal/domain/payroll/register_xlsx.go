package payroll

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const registerSheet = "Register"

var registerHeader = []any{
	"Employee code", "Employee", "Days worked", "Days absent", "Overtime hours",
	"Basic salary", "Allowances", "Bonuses", "Overtime pay", "Gross salary",
	"Tax", "Insurance", "Other deductions", "Total deductions", "Net salary", "Currency", "Status",
}

// RenderRegisterXLSX writes one row per record plus a totals row taken from the period.
func RenderRegisterXLSX(period Period, records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(registerSheet, "A1", &[]any{"Payroll register", period.Name,
		period.StartDate.Format("2006-01-02"), period.EndDate.Format("2006-01-02"), string(period.Status)}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(registerSheet, "A3", &registerHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(registerSheet, 3, 3, bold); err != nil {
		return nil, err
	}

	row := 4
	for _, rec := range records {
		name, code := "", ""
		if rec.Employee != nil {
			name, code = rec.Employee.FullName, rec.Employee.EmployeeCode
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		values := []any{
			code, name, rec.DaysWorked, rec.DaysAbsent, rec.OvertimeHours.InexactFloat64(),
			rec.BasicSalary.InexactFloat64(), rec.Allowances.InexactFloat64(), rec.Bonuses.InexactFloat64(),
			rec.OvertimePay.InexactFloat64(), rec.GrossSalary.InexactFloat64(), rec.TaxDeduction.InexactFloat64(),
			rec.InsuranceDeduction.InexactFloat64(), rec.OtherDeductions.InexactFloat64(),
			rec.TotalDeductions.InexactFloat64(), rec.NetSalary.InexactFloat64(), rec.Currency, string(rec.Status),
		}
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return nil, err
		}
		row++
	}

	totalsCell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return nil, err
	}
	totals := []any{"Totals", "", "", "", "", "", "", "", "",
		period.TotalGross.InexactFloat64(), "", "", "", period.TotalDeductions.InexactFloat64(), period.TotalNet.InexactFloat64()}
	if err := f.SetSheetRow(registerSheet, totalsCell, &totals); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(registerSheet, row+1, row+1, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(registerSheet, "A", "B", 22); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write register for period %s: %w", period.ID, err)
	}
	return buf.Bytes(), nil
}
