package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lms_backend/internal/model"

	"github.com/jackc/pgx/v5"
)

// EnrollmentRepository defines operations for enrollment data
type EnrollmentRepository interface {
	Create(ctx context.Context, e *model.Enrollment) error
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
	FindByID(ctx context.Context, id int64, scope model.EnrollmentScope) (*model.Enrollment, error)
	List(ctx context.Context, scope model.EnrollmentScope) ([]model.Enrollment, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type enrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db DBTX) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

const enrollmentSelect = `SELECT e.id, e.user_id, u.username, e.course_id, c.title, e.enrolled_at
            FROM enrollments e
            JOIN users u ON u.id = e.user_id
            JOIN courses c ON c.id = e.course_id`

func enrollmentConditions(scope model.EnrollmentScope, argStart int) ([]string, []any) {
	var conditions []string
	var args []any
	if scope.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("e.user_id = $%d", argStart))
		args = append(args, *scope.UserID)
		argStart++
	}
	if scope.CourseInstructorID != nil {
		conditions = append(conditions, fmt.Sprintf("c.instructor_id = $%d", argStart))
		args = append(args, *scope.CourseInstructorID)
	}
	return conditions, args
}

// Create inserts an enrollment. A duplicate (user, course) pair yields ErrConflict.
func (r *enrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	sql := `INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2) RETURNING id, enrolled_at`
	if err := r.db.QueryRow(ctx, sql, e.UserID, e.CourseID).Scan(&e.ID, &e.EnrolledAt); err != nil {
		return fmt.Errorf("failed to create enrollment: %w", translate(err))
	}
	return nil
}

// Exists reports whether userID is already enrolled in courseID
func (r *enrollmentRepository) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	var exists bool
	sql := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`
	if err := r.db.QueryRow(ctx, sql, userID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return exists, nil
}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := row.Scan(&e.ID, &e.UserID, &e.UserUsername, &e.CourseID, &e.CourseTitle, &e.EnrolledAt)
	return e, err
}

// FindByID retrieves an enrollment visible within scope
func (r *enrollmentRepository) FindByID(ctx context.Context, id int64, scope model.EnrollmentScope) (*model.Enrollment, error) {
	conditions, args := enrollmentConditions(scope, 2)
	conditions = append([]string{"e.id = $1"}, conditions...)
	args = append([]any{id}, args...)

	sql := enrollmentSelect + " WHERE " + strings.Join(conditions, " AND ")
	e, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find enrollment by ID: %w", err)
	}
	return e, nil
}

// List returns enrollments visible within scope, newest first
func (r *enrollmentRepository) List(ctx context.Context, scope model.EnrollmentScope) ([]model.Enrollment, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(enrollmentSelect)
	conditions, args := enrollmentConditions(scope, 1)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY e.enrolled_at DESC, e.id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *enrollmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return n, nil
}
