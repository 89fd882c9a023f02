package employee

const (
	StatusActive     = "active"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

var Statuses = []string{StatusActive, StatusOnLeave, StatusTerminated}
