package employee

import "time"

type Employee struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id,omitempty"`
	EmployeeCode     string     `json:"employee_code"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Department       string     `json:"department"`
	Position         string     `json:"position"`
	EmploymentStatus string     `json:"employment_status"`
	HireDate         *time.Time `json:"hire_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type CreateInput struct {
	UserID       string
	EmployeeCode string
	FirstName    string
	LastName     string
	Email        string
	Department   string
	Position     string
	HireDate     *time.Time
}

type Filter struct {
	Status string
	Limit  int
	Offset int
}
