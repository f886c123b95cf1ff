package stats

// StatusCount is a single bucket of a status breakdown.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

// DepartmentLoad is the approval workload of one department.
type DepartmentLoad struct {
	DepartmentID   string `json:"department_id" db:"department_id"`
	DepartmentName string `json:"department_name" db:"department_name"`
	OpenSteps      int64  `json:"open_steps" db:"open_steps"`
	CompletedSteps int64  `json:"completed_steps" db:"completed_steps"`
}

// Overview is the dashboard summary.
type Overview struct {
	Documents      []StatusCount    `json:"documents"`
	Workflows      []StatusCount    `json:"workflows"`
	Steps          []StatusCount    `json:"steps"`
	Departments    []DepartmentLoad `json:"departments"`
	AvgStepHours   float64          `json:"avg_step_hours"`
	OverdueSteps   int64            `json:"overdue_steps"`
	TotalDocuments int64            `json:"total_documents"`
}
