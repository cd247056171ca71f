package repository

import (
	"context"
	"errors"
	"fmt"

	"lms_backend/internal/model"

	"github.com/jackc/pgx/v5"
)

// CategoryRepository defines operations for category data
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	sql := `INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRow(ctx, sql, c.Name, c.Description).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	c := &model.Category{}
	sql := `SELECT id, name, description FROM categories WHERE id = $1`
	if err := r.db.QueryRow(ctx, sql, id).Scan(&c.ID, &c.Name, &c.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	sql := `UPDATE categories SET name = $1, description = $2 WHERE id = $3`
	cmdTag, err := r.db.Exec(ctx, sql, c.Name, c.Description, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a category. Its courses go with it (ON DELETE CASCADE).
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
