package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lms_backend/internal/model"
	"lms_backend/internal/policy"
	"lms_backend/internal/repository"
)

// CatalogService manages categories and courses
type CatalogService interface {
	ListCategories(ctx context.Context, p policy.Principal) ([]model.Category, error)
	GetCategory(ctx context.Context, p policy.Principal, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, p policy.Principal, req model.CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, p policy.Principal, id int64, req model.CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, p policy.Principal, id int64) error

	ListCourses(ctx context.Context, p policy.Principal) ([]model.Course, error)
	GetCourse(ctx context.Context, p policy.Principal, id int64) (*model.Course, error)
	CreateCourse(ctx context.Context, p policy.Principal, req model.CourseRequest) (*model.Course, error)
	UpdateCourse(ctx context.Context, p policy.Principal, id int64, req model.CourseRequest) (*model.Course, error)
	DeleteCourse(ctx context.Context, p policy.Principal, id int64) error
}

type catalogService struct {
	categories repository.CategoryRepository
	courses    repository.CourseRepository
	users      repository.UserRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(categories repository.CategoryRepository, courses repository.CourseRepository, users repository.UserRepository) CatalogService {
	return &catalogService{categories: categories, courses: courses, users: users}
}

func requireAdmin(p policy.Principal) error {
	if !policy.IsAdmin(p) {
		return ErrForbidden
	}
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context, p policy.Principal) ([]model.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.categories.List(ctx)
}

func (s *catalogService) GetCategory(ctx context.Context, p policy.Principal, id int64) (*model.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NotFoundError("Category")
	}
	return c, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, p policy.Principal, req model.CategoryRequest) (*model.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, ValidationError("name is required")
	}
	c := &model.Category{Name: *req.Name}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, p policy.Principal, id int64, req model.CategoryRequest) (*model.Category, error) {
	c, err := s.GetCategory(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ValidationError("name: This field may not be blank.")
		}
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if err := s.categories.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("Category")
		}
		return nil, err
	}
	return c, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, p policy.Principal, id int64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundError("Category")
		}
		return err
	}
	return nil
}

// courseScopeFor limits instructors to the courses they own.
func courseScopeFor(p policy.Principal) model.CourseScope {
	if p.HasRole && p.Role == model.RoleInstructor {
		id := p.UserID
		return model.CourseScope{InstructorID: &id}
	}
	return model.CourseScope{}
}

func (s *catalogService) ListCourses(ctx context.Context, p policy.Principal) ([]model.Course, error) {
	if !p.Authenticated() {
		return nil, ErrForbidden
	}
	return s.courses.List(ctx, courseScopeFor(p))
}

func (s *catalogService) GetCourse(ctx context.Context, p policy.Principal, id int64) (*model.Course, error) {
	if !p.Authenticated() {
		return nil, ErrForbidden
	}
	c, err := s.courses.FindByID(ctx, id, courseScopeFor(p))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NotFoundError("Course")
	}
	return c, nil
}

// checkCourseRefs verifies the referenced category and instructor exist.
func (s *catalogService) checkCourseRefs(ctx context.Context, categoryID *int64, instructorID int64) error {
	if categoryID != nil {
		cat, err := s.categories.FindByID(ctx, *categoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return ValidationError("Invalid category %d - object does not exist.", *categoryID)
		}
	}
	user, err := s.users.FindByID(ctx, instructorID)
	if err != nil {
		return err
	}
	if user == nil {
		return ValidationError("Invalid instructor %d - object does not exist.", instructorID)
	}
	return nil
}

// foreignKeyError maps a reference that vanished between check and write.
func foreignKeyError(err error) error {
	if !errors.Is(err, repository.ErrForeignKey) {
		return err
	}
	name := repository.ConstraintName(err)
	switch {
	case strings.Contains(name, "category"):
		return ValidationError("Invalid category - object does not exist.")
	case strings.Contains(name, "instructor"):
		return ValidationError("Invalid instructor - object does not exist.")
	case strings.Contains(name, "course"):
		return ValidationError("Invalid course - object does not exist.")
	case strings.Contains(name, "user"):
		return ValidationError("Invalid user - object does not exist.")
	}
	return ValidationError("Referenced object does not exist.")
}

func (s *catalogService) CreateCourse(ctx context.Context, p policy.Principal, req model.CourseRequest) (*model.Course, error) {
	if !policy.IsInstructor(p) {
		return nil, ErrForbidden
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, ValidationError("title is required")
	}
	if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
		return nil, ValidationError("description is required")
	}

	c := &model.Course{Title: *req.Title, Description: *req.Description, CategoryID: req.CategoryID.Value}
	if policy.IsAdmin(p) {
		if req.InstructorID == nil {
			return nil, ValidationError("instructor is required")
		}
		c.InstructorID = *req.InstructorID
	} else {
		c.InstructorID = p.UserID
	}

	if err := s.checkCourseRefs(ctx, c.CategoryID, c.InstructorID); err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, foreignKeyError(err)
	}
	return s.reloadCourse(ctx, c.ID)
}

func (s *catalogService) reloadCourse(ctx context.Context, id int64) (*model.Course, error) {
	c, err := s.courses.FindByID(ctx, id, model.CourseScope{})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NotFoundError("Course")
	}
	return c, nil
}

// UpdateCourse applies a partial update within the caller's visible set
func (s *catalogService) UpdateCourse(ctx context.Context, p policy.Principal, id int64, req model.CourseRequest) (*model.Course, error) {
	if !policy.IsInstructor(p) {
		return nil, ErrForbidden
	}
	c, err := s.GetCourse(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ValidationError("title: This field may not be blank.")
		}
		c.Title = *req.Title
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ValidationError("description: This field may not be blank.")
		}
		c.Description = *req.Description
	}
	if req.CategoryID.Set {
		c.CategoryID = req.CategoryID.Value
	}
	if req.InstructorID != nil && *req.InstructorID != c.InstructorID {
		if !policy.IsAdmin(p) {
			return nil, ValidationError("Instructors cannot reassign course ownership.")
		}
		c.InstructorID = *req.InstructorID
	}

	if err := s.checkCourseRefs(ctx, req.CategoryID.Value, c.InstructorID); err != nil {
		return nil, err
	}
	if err := s.courses.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("Course")
		}
		return nil, foreignKeyError(err)
	}
	return s.reloadCourse(ctx, c.ID)
}

func (s *catalogService) DeleteCourse(ctx context.Context, p policy.Principal, id int64) error {
	if !policy.IsInstructor(p) {
		return ErrForbidden
	}
	if _, err := s.GetCourse(ctx, p, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundError("Course")
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}
