package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/openhrm/hrm/internal/domain/attendance"
	"github.com/openhrm/hrm/internal/domain/salary"
	"github.com/openhrm/hrm/internal/platform/config"
)

var hundred = decimal.NewFromInt(100)

// Policy prices overtime as
//
//	overtime_hours * basic_salary / (working_days * StandardDailyHours) * OvertimeMultiplier
type Policy struct {
	StandardDailyHours decimal.Decimal
	OvertimeMultiplier decimal.Decimal
}

func PolicyFromConfig(cfg config.PayrollPolicy) Policy {
	return Policy{StandardDailyHours: cfg.StandardDailyHours, OvertimeMultiplier: cfg.OvertimeMultiplier}
}

func DefaultPolicy() Policy {
	return Policy{StandardDailyHours: decimal.NewFromInt(8), OvertimeMultiplier: decimal.RequireFromString("1.5")}
}

// HourlyRate is basic pay spread over the period's expected hours.
func (p Policy) HourlyRate(basic decimal.Decimal, workingDays int) decimal.Decimal {
	hours := decimal.NewFromInt(int64(workingDays)).Mul(p.StandardDailyHours)
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return basic.DivRound(hours, 8)
}

func (p Policy) OvertimePay(basic decimal.Decimal, workingDays int, overtimeHours decimal.Decimal) decimal.Decimal {
	if !overtimeHours.IsPositive() {
		return decimal.Zero
	}
	return overtimeHours.Mul(p.HourlyRate(basic, workingDays)).Mul(p.OvertimeMultiplier).Round(2)
}

type Inputs struct {
	Structure       salary.Structure
	Attendance      attendance.Summary
	WorkingDays     int
	Bonuses         decimal.Decimal
	OtherDeductions decimal.Decimal
}

// Breakdown is one computed payslip. Every amount is rounded to cents before
// it is summed, so net = gross - total_deductions holds exactly.
type Breakdown struct {
	BasicSalary        decimal.Decimal
	Allowances         decimal.Decimal
	Bonuses            decimal.Decimal
	OvertimePay        decimal.Decimal
	GrossSalary        decimal.Decimal
	TaxDeduction       decimal.Decimal
	InsuranceDeduction decimal.Decimal
	OtherDeductions    decimal.Decimal
	TotalDeductions    decimal.Decimal
	NetSalary          decimal.Decimal
	DaysWorked         int
	DaysAbsent         int
	OvertimeHours      decimal.Decimal
}

func Compute(p Policy, in Inputs) Breakdown {
	st := in.Structure
	b := Breakdown{
		BasicSalary:        st.BasicSalary.Round(2),
		Allowances:         st.Allowances().Round(2),
		Bonuses:            in.Bonuses.Round(2),
		InsuranceDeduction: st.SocialInsurance.Round(2),
		OtherDeductions:    in.OtherDeductions.Round(2),
		DaysWorked:         in.Attendance.DaysWorked,
		DaysAbsent:         in.Attendance.DaysAbsent,
		OvertimeHours:      in.Attendance.OvertimeHours.Round(2),
	}
	b.OvertimePay = p.OvertimePay(b.BasicSalary, in.WorkingDays, b.OvertimeHours)
	b.GrossSalary = b.BasicSalary.Add(b.Allowances).Add(b.Bonuses).Add(b.OvertimePay)
	b.TaxDeduction = b.GrossSalary.Mul(st.TaxRate).Div(hundred).Round(2)
	b.TotalDeductions = b.TaxDeduction.Add(b.InsuranceDeduction).Add(b.OtherDeductions)
	b.NetSalary = b.GrossSalary.Sub(b.TotalDeductions)
	return b
}
