package payroll

import "errors"

var (
	ErrPeriodNotFound          = errors.New("payroll period not found")
	ErrRecordNotFound          = errors.New("payroll record not found")
	ErrPeriodInvalidTransition = errors.New("payroll period status change not allowed")
	ErrPeriodLocked            = errors.New("payroll period is no longer editable")
	ErrCalculationInProgress   = errors.New("payroll calculation already running for this period")
	ErrPeriodBusy              = errors.New("payroll period is being updated, retry shortly")
)
