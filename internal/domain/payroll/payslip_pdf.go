package payroll

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// RenderPayslipPDF draws a single record as an A4 payslip. The record's
// Period and Employee must be populated.
func RenderPayslipPDF(rec Record) ([]byte, error) {
	if rec.Period == nil || rec.Employee == nil {
		return nil, fmt.Errorf("payslip %s: period and employee details required", rec.ID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+rec.Period.Name, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := [][2]string{
		{"Employee", rec.Employee.FullName},
		{"Employee code", rec.Employee.EmployeeCode},
		{"Period", fmt.Sprintf("%s (%s to %s)", rec.Period.Name, rec.Period.StartDate.Format("2006-01-02"), rec.Period.EndDate.Format("2006-01-02"))},
		{"Status", string(rec.Status)},
		{"Days worked / absent", fmt.Sprintf("%d / %d of %d", rec.DaysWorked, rec.DaysAbsent, rec.Period.WorkingDays)},
		{"Overtime hours", rec.OvertimeHours.StringFixed(2)},
	}
	for _, line := range header {
		pdf.CellFormat(50, 7, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, line[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	type line struct {
		label  string
		amount decimal.Decimal
	}
	section := func(title string, rows []line) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, row := range rows {
			pdf.CellFormat(120, 7, row.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, row.amount.StringFixed(2)+" "+rec.Currency, "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}
	section("Earnings", []line{
		{"Basic salary", rec.BasicSalary},
		{"Allowances", rec.Allowances},
		{"Bonuses", rec.Bonuses},
		{"Overtime pay", rec.OvertimePay},
		{"Gross salary", rec.GrossSalary},
	})
	section("Deductions", []line{
		{"Tax", rec.TaxDeduction},
		{"Social insurance", rec.InsuranceDeduction},
		{"Other deductions", rec.OtherDeductions},
		{"Total deductions", rec.TotalDeductions},
	})

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(120, 9, "Net salary", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, rec.NetSalary.StringFixed(2)+" "+rec.Currency, "T", 1, "R", false, 0, "")
	if rec.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "Notes: "+rec.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip %s: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}
