package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_backoffice/internal/models"
)

// CategoryRepository defines the interface for category-related database operations.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, exec SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, exec SQLExecutor, category *models.Category) error
	CountProductsInCategory(ctx context.Context, exec SQLExecutor, id int64) (int, error)
	DeleteCategory(ctx context.Context, exec SQLExecutor, id int64) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, name, description, created_at, updated_at`

func scanCategory(s scanner, c *models.Category) error {
	var description sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Description = stringPtr(description)
	return nil
}

func (r *categoryRepository) CreateCategory(ctx context.Context, exec SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categorias (name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	now := time.Now()
	category.CreatedAt, category.UpdatedAt = now, now
	err := exec.QueryRowContext(ctx, query, category.Name, nullString(category.Description), now, now).Scan(&category.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating category")
	}
	return category.ID, nil
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categorias WHERE id = $1`

	category := &models.Category{}
	if err := scanCategory(r.db.QueryRowContext(ctx, query, id), category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, id, err)
	}
	return category, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categorias ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category rows: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, exec SQLExecutor, category *models.Category) error {
	query := `UPDATE categorias SET name = $1, description = $2, updated_at = $3 WHERE id = $4`

	category.UpdatedAt = time.Now()
	res, err := exec.ExecContext(ctx, query, category.Name, nullString(category.Description), category.UpdatedAt, category.ID)
	if err != nil {
		return wrapWriteError(err, "updating category")
	}
	return expectOneRow(res, "updating category")
}

// CountProductsInCategory counts every product referencing the category, retired ones included.
func (r *categoryRepository) CountProductsInCategory(ctx context.Context, exec SQLExecutor, id int64) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM productos WHERE category_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting products of category %d: %v", ErrDatabaseError, id, err)
	}
	return count, nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, exec SQLExecutor, id int64) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM categorias WHERE id = $1`, id)
	if err != nil {
		err = wrapWriteError(err, "deleting category")
		if errors.Is(err, ErrForeignKey) {
			return fmt.Errorf("%w: %v", ErrInUse, err)
		}
		return err
	}
	return expectOneRow(res, "deleting category")
}
