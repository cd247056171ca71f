package repository

import (
	"context"
	"errors"
	"fmt"

	"lms_backend/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for users and their profiles
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindProfile(ctx context.Context, userID int64) (*model.Profile, error)
	UpdateAccount(ctx context.Context, user *model.User, profile *model.Profile) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	ListInstructors(ctx context.Context) ([]model.Instructor, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at`

// CreateWithProfile inserts the user and its profile in a single transaction
func (r *userRepository) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	sql := `INSERT INTO users (username, email, password_hash, first_name, last_name)
            VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err = tx.QueryRow(ctx, sql, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to create user: %w", translate(err))
	}

	profile.UserID = user.ID
	sql = `INSERT INTO profiles (user_id, role, phone) VALUES ($1, $2, $3) RETURNING id`
	if err := tx.QueryRow(ctx, sql, profile.UserID, string(profile.Role), profile.Phone).Scan(&profile.ID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to create profile: %w", translate(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error here, the service layer decides
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

// FindByUsername retrieves a user by username
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

// FindProfile retrieves the profile of a user, nil if it has none
func (r *userRepository) FindProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	p := &model.Profile{}
	var role string
	sql := `SELECT id, user_id, role, phone FROM profiles WHERE user_id = $1`
	err := r.db.QueryRow(ctx, sql, userID).Scan(&p.ID, &p.UserID, &role, &p.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	p.Role = model.Role(role)
	return p, nil
}

// UpdateAccount writes the mutable user fields and the profile phone. The role column is never touched.
func (r *userRepository) UpdateAccount(ctx context.Context, user *model.User, profile *model.Profile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	sql := `UPDATE users SET email = $1, first_name = $2, last_name = $3 WHERE id = $4`
	if _, err := tx.Exec(ctx, sql, user.Email, user.FirstName, user.LastName, user.ID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	sql = `UPDATE profiles SET phone = $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, sql, profile.Phone, profile.ID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account update: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	sql := `UPDATE users SET password_hash = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInstructors returns every user whose profile role is instructor
func (r *userRepository) ListInstructors(ctx context.Context) ([]model.Instructor, error) {
	sql := `SELECT u.id, u.username, u.email FROM users u
            JOIN profiles p ON p.user_id = u.id
            WHERE p.role = $1 ORDER BY u.id`
	rows, err := r.db.Query(ctx, sql, string(model.RoleInstructor))
	if err != nil {
		return nil, fmt.Errorf("failed to query instructors: %w", err)
	}
	defer rows.Close()

	instructors := []model.Instructor{}
	for rows.Next() {
		var i model.Instructor
		if err := rows.Scan(&i.ID, &i.Username, &i.Email); err != nil {
			return nil, fmt.Errorf("failed to scan instructor row: %w", err)
		}
		instructors = append(instructors, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instructor rows: %w", err)
	}
	return instructors, nil
}

// Count returns the total number of users
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountByRole groups profiles by role. Roles without profiles are absent from the map.
func (r *userRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT role, COUNT(*) FROM profiles GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count profiles by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Role]int64)
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		counts[model.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role counts: %w", err)
	}
	return counts, nil
}
