package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrDuplicateEmployee = errors.New("employee code or email already in use")
)
