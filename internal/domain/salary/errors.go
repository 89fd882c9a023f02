package salary

import "errors"

var (
	ErrStructureNotFound    = errors.New("salary structure not found")
	ErrOverlappingStructure = errors.New("an active salary structure already covers these dates")
	ErrStructureInactive    = errors.New("salary structure is inactive")
)
