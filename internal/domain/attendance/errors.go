package attendance

import "errors"

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAlreadyClockedIn   = errors.New("already clocked in today")
	ErrNotClockedIn       = errors.New("no open clock-in for today")
	ErrDuplicateDay       = errors.New("attendance already recorded for this employee and date")
)
