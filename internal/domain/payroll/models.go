package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Status          PeriodStatus    `json:"status"`
	WorkingDays     int             `json:"working_days"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Version         int             `json:"version"`
	CalculatedAt    *time.Time      `json:"calculated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type EmployeeRef struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
	Email        string `json:"email,omitempty"`
}

type Record struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	PayrollPeriodID    string          `json:"payroll_period_id"`
	BasicSalary        decimal.Decimal `json:"basic_salary"`
	Allowances         decimal.Decimal `json:"allowances"`
	Bonuses            decimal.Decimal `json:"bonuses"`
	OvertimePay        decimal.Decimal `json:"overtime_pay"`
	GrossSalary        decimal.Decimal `json:"gross_salary"`
	TaxDeduction       decimal.Decimal `json:"tax_deduction"`
	InsuranceDeduction decimal.Decimal `json:"insurance_deduction"`
	OtherDeductions    decimal.Decimal `json:"other_deductions"`
	TotalDeductions    decimal.Decimal `json:"total_deductions"`
	NetSalary          decimal.Decimal `json:"net_salary"`
	Currency           string          `json:"currency"`
	DaysWorked         int             `json:"days_worked"`
	DaysAbsent         int             `json:"days_absent"`
	OvertimeHours      decimal.Decimal `json:"overtime_hours"`
	Status             RecordStatus    `json:"status"`
	Notes              string          `json:"notes"`
	Employee           *EmployeeRef    `json:"employee,omitempty"`
	Period             *Period         `json:"payroll_period,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// apply copies a computed breakdown onto the record, leaving identity,
// manual inputs and status alone.
func (r *Record) apply(b Breakdown) {
	r.BasicSalary = b.BasicSalary
	r.Allowances = b.Allowances
	r.Bonuses = b.Bonuses
	r.OvertimePay = b.OvertimePay
	r.GrossSalary = b.GrossSalary
	r.TaxDeduction = b.TaxDeduction
	r.InsuranceDeduction = b.InsuranceDeduction
	r.OtherDeductions = b.OtherDeductions
	r.TotalDeductions = b.TotalDeductions
	r.NetSalary = b.NetSalary
	r.DaysWorked = b.DaysWorked
	r.DaysAbsent = b.DaysAbsent
	r.OvertimeHours = b.OvertimeHours
}

type Totals struct {
	Gross      decimal.Decimal `json:"total_gross"`
	Deductions decimal.Decimal `json:"total_deductions"`
	Net        decimal.Decimal `json:"total_net"`
}

func (t Totals) add(r Record) Totals {
	return Totals{
		Gross:      t.Gross.Add(r.GrossSalary),
		Deductions: t.Deductions.Add(r.TotalDeductions),
		Net:        t.Net.Add(r.NetSalary),
	}
}

type SkippedEmployee struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

type CalculationResult struct {
	PeriodID       string            `json:"period_id"`
	RecordsCreated int               `json:"records_created"`
	RecordsUpdated int               `json:"records_updated"`
	RecordsRemoved int               `json:"records_removed"`
	Skipped        []SkippedEmployee `json:"skipped"`
	Totals         Totals            `json:"period_totals"`
	Version        int               `json:"version"`
}

type PeriodSummary struct {
	Period
	RecordCount int            `json:"record_count"`
	ByStatus    map[string]int `json:"records_by_status"`
}

type CreatePeriodInput struct {
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	WorkingDays int
}

type RecordFilter struct {
	PeriodID   string
	EmployeeID string
	Limit      int
	Offset     int
}

// Adjustments are the manual inputs HR may set on a record before approval.
type Adjustments struct {
	Bonuses         *decimal.Decimal
	OtherDeductions *decimal.Decimal
	Notes           *string
}

const (
	SkipNoSalaryStructure = "no active salary structure covers the period"
)
