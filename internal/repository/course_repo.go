package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lms_backend/internal/model"

	"github.com/jackc/pgx/v5"
)

// CourseRepository defines operations for course data
type CourseRepository interface {
	Create(ctx context.Context, c *model.Course) error
	FindByID(ctx context.Context, id int64, scope model.CourseScope) (*model.Course, error)
	List(ctx context.Context, scope model.CourseScope) ([]model.Course, error)
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type courseRepository struct {
	db DBTX
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db DBTX) CourseRepository {
	return &courseRepository{db: db}
}

const courseSelect = `SELECT c.id, c.title, c.description, c.category_id, cat.name, c.instructor_id,
            u.username, u.first_name, u.last_name, c.created_at, c.updated_at
            FROM courses c
            LEFT JOIN categories cat ON cat.id = c.category_id
            JOIN users u ON u.id = c.instructor_id`

func scanCourse(row pgx.Row) (*model.Course, error) {
	c := &model.Course{}
	var username, first, last string
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.CategoryID, &c.CategoryName, &c.InstructorID,
		&username, &first, &last, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.InstructorName = model.DisplayName(first, last, username)
	return c, nil
}

type courseScope model.CourseScope

// conditions turns the scope into WHERE conditions numbered from placeholder argStart.
func (s courseScope) conditions(argStart int) ([]string, []any) {
	var conditions []string
	var args []any
	if s.InstructorID != nil {
		conditions = append(conditions, fmt.Sprintf("c.instructor_id = $%d", argStart))
		args = append(args, *s.InstructorID)
	}
	return conditions, args
}

// Create inserts a new course
func (r *courseRepository) Create(ctx context.Context, c *model.Course) error {
	sql := `INSERT INTO courses (title, description, category_id, instructor_id)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, c.Title, c.Description, c.CategoryID, c.InstructorID).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", translate(err))
	}
	return nil
}

// FindByID retrieves a course visible within scope
func (r *courseRepository) FindByID(ctx context.Context, id int64, scope model.CourseScope) (*model.Course, error) {
	conditions, args := courseScope(scope).conditions(2)
	conditions = append([]string{"c.id = $1"}, conditions...)
	args = append([]any{id}, args...)

	sql := courseSelect + " WHERE " + strings.Join(conditions, " AND ")
	c, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find course by ID: %w", err)
	}
	return c, nil
}

// List returns all courses visible within scope
func (r *courseRepository) List(ctx context.Context, scope model.CourseScope) ([]model.Course, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(courseSelect)
	conditions, args := courseScope(scope).conditions(1)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY c.id")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

// Update modifies an existing course
func (r *courseRepository) Update(ctx context.Context, c *model.Course) error {
	sql := `UPDATE courses
            SET title = $1, description = $2, category_id = $3, instructor_id = $4
            WHERE id = $5 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, c.Title, c.Description, c.CategoryID, c.InstructorID, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update course: %w", translate(err))
	}
	return nil
}

// Delete removes a course together with its enrollments
func (r *courseRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return n, nil
}
