package auth

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleEmployee = "employee"
)

const (
	PermEmployeesRead   = "employees.read"
	PermEmployeesWrite  = "employees.write"
	PermAttendanceRead  = "attendance.read"
	PermAttendanceWrite = "attendance.write"
	PermAttendanceSelf  = "attendance.self"
	PermSalaryRead      = "salary.read"
	PermSalaryWrite     = "salary.write"
	PermPayrollRead     = "payroll.read"
	PermPayrollWrite    = "payroll.write"
	PermPayrollRun      = "payroll.run"
	PermPayrollApprove  = "payroll.approve"
	PermPayrollSelf     = "payroll.self"
	PermJobsRead        = "jobs.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceSelf,
	PermSalaryRead,
	PermSalaryWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollRun,
	PermPayrollApprove,
	PermPayrollSelf,
	PermJobsRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermAttendanceSelf,
		PermPayrollSelf,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermAttendanceSelf,
		PermSalaryRead,
		PermSalaryWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollRun,
		PermPayrollSelf,
		PermJobsRead,
	},
	RoleAdmin: DefaultPermissions,
}

// RoleHas reports whether the built-in role grants permission.
func RoleHas(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
