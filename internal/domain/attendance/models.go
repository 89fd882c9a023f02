package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Record struct {
	ID            string              `json:"id"`
	EmployeeID    string              `json:"employee_id"`
	RecordDate    time.Time           `json:"record_date"`
	ClockIn       *time.Time          `json:"clock_in_time,omitempty"`
	ClockOut      *time.Time          `json:"clock_out_time,omitempty"`
	ClockInIP     string              `json:"clock_in_ip,omitempty"`
	ClockOutIP    string              `json:"clock_out_ip,omitempty"`
	Status        string              `json:"status"`
	TotalHours    decimal.NullDecimal `json:"total_hours"`
	OvertimeHours decimal.Decimal     `json:"overtime_hours"`
	LateMinutes   int                 `json:"late_minutes"`
	Notes         string              `json:"notes"`
	CreatedAt     time.Time           `json:"created_at"`
}

type Filter struct {
	EmployeeID string
	Date       *time.Time
	Limit      int
	Offset     int
}

// RecordInput is a row entered by HR rather than by a clock-in, typically an
// absence or leave day.
type RecordInput struct {
	EmployeeID    string
	RecordDate    time.Time
	Status        string
	OvertimeHours decimal.Decimal
	Notes         string
}

// Patch carries manual corrections; nil fields are left untouched.
type Patch struct {
	Status        *string
	OvertimeHours *decimal.Decimal
	Notes         *string
}

// Summary is what payroll reads from a period's attendance rows.
type Summary struct {
	DaysWorked    int             `json:"days_worked"`
	DaysAbsent    int             `json:"days_absent"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}
