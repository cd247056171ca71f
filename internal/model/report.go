package model

// DashboardSummary holds the aggregate counts shown on the dashboard
type DashboardSummary struct {
	TotalUsers       int64         `json:"total_users"`
	UsersByRole      RoleBreakdown `json:"users_by_role"`
	TotalCourses     int64         `json:"total_courses"`
	TotalEnrollments int64         `json:"total_enrollments"`
}

type RoleBreakdown struct {
	Admin      int64 `json:"admin"`
	Instructor int64 `json:"instructor"`
	Student    int64 `json:"student"`
}

// Instructor is an entry of the instructor directory
type Instructor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
