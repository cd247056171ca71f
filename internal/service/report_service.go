package service

import (
	"context"
	"fmt"

	"lms_backend/internal/model"
	"lms_backend/internal/policy"
	"lms_backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

// ReportService serves the dashboard and the instructor directory
type ReportService interface {
	DashboardSummary(ctx context.Context, p policy.Principal) (*model.DashboardSummary, error)
	ListInstructors(ctx context.Context, p policy.Principal) ([]model.Instructor, error)
}

type reportService struct {
	users       repository.UserRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
}

// NewReportService creates a new ReportService
func NewReportService(users repository.UserRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository) ReportService {
	return &reportService{users: users, courses: courses, enrollments: enrollments}
}

// DashboardSummary counts users, users per role, courses and enrollments.
func (s *reportService) DashboardSummary(ctx context.Context, p policy.Principal) (*model.DashboardSummary, error) {
	if !p.Authenticated() {
		return nil, ErrForbidden
	}

	summary := &model.DashboardSummary{}
	var byRole map[model.Role]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.TotalUsers, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		byRole, err = s.users.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary.TotalCourses, err = s.courses.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary.TotalEnrollments, err = s.enrollments.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}

	summary.UsersByRole = model.RoleBreakdown{
		Admin:      byRole[model.RoleAdmin],
		Instructor: byRole[model.RoleInstructor],
		Student:    byRole[model.RoleStudent],
	}
	return summary, nil
}

func (s *reportService) ListInstructors(ctx context.Context, p policy.Principal) ([]model.Instructor, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.users.ListInstructors(ctx)
}
