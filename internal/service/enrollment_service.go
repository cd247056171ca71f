package service

import (
	"context"
	"errors"
	"fmt"

	"lms_backend/internal/model"
	"lms_backend/internal/policy"
	"lms_backend/internal/repository"
)

// EnrollmentService manages course enrollments
type EnrollmentService interface {
	List(ctx context.Context, p policy.Principal) ([]model.Enrollment, error)
	Get(ctx context.Context, p policy.Principal, id int64) (*model.Enrollment, error)
	Create(ctx context.Context, p policy.Principal, req model.EnrollmentRequest) (*model.Enrollment, error)
	Delete(ctx context.Context, p policy.Principal, id int64) error
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, users repository.UserRepository) EnrollmentService {
	return &enrollmentService{enrollments: enrollments, courses: courses, users: users}
}

// enrollmentScopeFor returns the enrollments p may see: admins all of them,
// instructors those in courses they own, everyone else their own.
func enrollmentScopeFor(p policy.Principal) model.EnrollmentScope {
	id := p.UserID
	switch {
	case policy.IsAdmin(p):
		return model.EnrollmentScope{}
	case p.HasRole && p.Role == model.RoleInstructor:
		return model.EnrollmentScope{CourseInstructorID: &id}
	default:
		return model.EnrollmentScope{UserID: &id}
	}
}

func (s *enrollmentService) List(ctx context.Context, p policy.Principal) ([]model.Enrollment, error) {
	if !p.Authenticated() {
		return nil, ErrForbidden
	}
	return s.enrollments.List(ctx, enrollmentScopeFor(p))
}

func (s *enrollmentService) Get(ctx context.Context, p policy.Principal, id int64) (*model.Enrollment, error) {
	if !p.Authenticated() {
		return nil, ErrForbidden
	}
	e, err := s.enrollments.FindByID(ctx, id, enrollmentScopeFor(p))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, NotFoundError("Enrollment")
	}
	return e, nil
}

// Create enrolls a user in a course. Students always enroll themselves;
// admins name the user.
func (s *enrollmentService) Create(ctx context.Context, p policy.Principal, req model.EnrollmentRequest) (*model.Enrollment, error) {
	if !policy.CanEnroll(p) {
		return nil, ErrStudentSelfEnroll
	}
	if req.CourseID == nil {
		return nil, ValidationError("course is required")
	}

	e := &model.Enrollment{CourseID: *req.CourseID}
	if policy.IsAdmin(p) {
		if req.UserID == nil {
			return nil, ValidationError("user is required")
		}
		e.UserID = *req.UserID
	} else {
		e.UserID = p.UserID
		exists, err := s.enrollments.Exists(ctx, e.UserID, e.CourseID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateEnrollment
		}
	}

	if err := s.checkRefs(ctx, e.UserID, e.CourseID); err != nil {
		return nil, err
	}
	if err := s.enrollments.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, foreignKeyError(err)
	}

	created, err := s.enrollments.FindByID(ctx, e.ID, model.EnrollmentScope{})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, NotFoundError("Enrollment")
	}
	return created, nil
}

func (s *enrollmentService) checkRefs(ctx context.Context, userID, courseID int64) error {
	course, err := s.courses.FindByID(ctx, courseID, model.CourseScope{})
	if err != nil {
		return err
	}
	if course == nil {
		return ValidationError("Invalid course %d - object does not exist.", courseID)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ValidationError("Invalid user %d - object does not exist.", userID)
	}
	return nil
}

func (s *enrollmentService) Delete(ctx context.Context, p policy.Principal, id int64) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	if err := s.enrollments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundError("Enrollment")
		}
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return nil
}
