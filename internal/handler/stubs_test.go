package handler

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/policy"
	"lms_backend/internal/service"
)

// tokens maps bearer tokens to the principals the stub auth service resolves.
var tokens = map[string]policy.Principal{
	"admin-token":      {UserID: 1, Role: model.RoleAdmin, HasRole: true},
	"instructor-token": {UserID: 2, Role: model.RoleInstructor, HasRole: true},
	"student-token":    {UserID: 3, Role: model.RoleStudent, HasRole: true},
}

type stubAuth struct {
	service.AuthService

	register     func(model.RegisterRequest) (*model.AuthResult, error)
	login        func(model.LoginRequest) (*model.AuthResult, error)
	refresh      func(string) (string, error)
	logout       func(string) error
	reset        func(token, password string) error
	resetRequest func(email string) error
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (policy.Principal, error) {
	p, ok := tokens[token]
	if !ok {
		return policy.Anonymous(), &service.Error{Kind: service.KindAuth, Message: "Invalid or expired token"}
	}
	return p, nil
}

func (s *stubAuth) Register(_ context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	return s.register(req)
}

func (s *stubAuth) Login(_ context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	return s.login(req)
}

func (s *stubAuth) Refresh(_ context.Context, token string) (string, error) {
	return s.refresh(token)
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	return s.logout(token)
}

func (s *stubAuth) RequestPasswordReset(_ context.Context, email string) error {
	return s.resetRequest(email)
}

func (s *stubAuth) ResetPassword(_ context.Context, token, password string) error {
	return s.reset(token, password)
}

func (s *stubAuth) CurrentUser(_ context.Context, p policy.Principal) (*model.CurrentUser, error) {
	role := p.Role
	return &model.CurrentUser{ID: p.UserID, Username: "user", Email: "user@example.com", Role: &role}, nil
}

func (s *stubAuth) GetProfile(_ context.Context, userID int64) (*model.ProfileView, error) {
	if userID == 3 {
		return nil, service.ErrProfileNotFound
	}
	return &model.ProfileView{ID: 10, Username: "user", Role: model.RoleAdmin}, nil
}

type stubCatalog struct {
	service.CatalogService
	created []model.CourseRequest
	updated []model.CourseRequest
}

func (s *stubCatalog) ListCategories(_ context.Context, _ policy.Principal) ([]model.Category, error) {
	return []model.Category{{ID: 1, Name: "Math"}}, nil
}

func (s *stubCatalog) CreateCategory(_ context.Context, _ policy.Principal, req model.CategoryRequest) (*model.Category, error) {
	return &model.Category{ID: 2, Name: *req.Name}, nil
}

func (s *stubCatalog) ListCourses(_ context.Context, _ policy.Principal) ([]model.Course, error) {
	return []model.Course{}, nil
}

func (s *stubCatalog) GetCourse(_ context.Context, _ policy.Principal, id int64) (*model.Course, error) {
	if id != 7 {
		return nil, service.NotFoundError("Course")
	}
	return &model.Course{ID: 7, Title: "Go", InstructorID: 2, InstructorName: "ivan"}, nil
}

func (s *stubCatalog) CreateCourse(_ context.Context, p policy.Principal, req model.CourseRequest) (*model.Course, error) {
	s.created = append(s.created, req)
	return &model.Course{ID: 8, Title: *req.Title, InstructorID: p.UserID}, nil
}

func (s *stubCatalog) UpdateCourse(_ context.Context, _ policy.Principal, id int64, req model.CourseRequest) (*model.Course, error) {
	s.updated = append(s.updated, req)
	return &model.Course{ID: id, Title: "Go", CategoryID: req.CategoryID.Value, InstructorID: 2}, nil
}

func (s *stubCatalog) DeleteCourse(_ context.Context, _ policy.Principal, id int64) error {
	if id != 7 {
		return service.NotFoundError("Course")
	}
	return nil
}

type stubEnrollments struct {
	service.EnrollmentService
	enrolled map[int64]bool
}

func (s *stubEnrollments) Create(_ context.Context, p policy.Principal, req model.EnrollmentRequest) (*model.Enrollment, error) {
	if !policy.CanEnroll(p) {
		return nil, service.ErrStudentSelfEnroll
	}
	if req.CourseID == nil {
		return nil, service.ValidationError("course is required")
	}
	if s.enrolled[*req.CourseID] {
		return nil, service.ErrDuplicateEnrollment
	}
	s.enrolled[*req.CourseID] = true
	return &model.Enrollment{ID: 1, UserID: p.UserID, CourseID: *req.CourseID}, nil
}

func (s *stubEnrollments) Delete(_ context.Context, _ policy.Principal, _ int64) error {
	return nil
}

type stubReports struct {
	service.ReportService
	err error
}

func (s *stubReports) DashboardSummary(_ context.Context, _ policy.Principal) (*model.DashboardSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.DashboardSummary{TotalUsers: 3, UsersByRole: model.RoleBreakdown{Admin: 1, Instructor: 1, Student: 1}}, nil
}

func (s *stubReports) ListInstructors(_ context.Context, _ policy.Principal) ([]model.Instructor, error) {
	return []model.Instructor{{ID: 2, Username: "ivan", Email: "ivan@example.com"}}, nil
}
