package attendance

const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
	StatusHalfDay = "half_day"
	StatusOnLeave = "on_leave"
)

var Statuses = []string{StatusPresent, StatusLate, StatusAbsent, StatusHalfDay, StatusOnLeave}

// IsWorked reports whether a row with this status counts as a worked day for payroll.
func IsWorked(status string) bool {
	switch status {
	case StatusPresent, StatusLate, StatusHalfDay:
		return true
	default:
		return false
	}
}
