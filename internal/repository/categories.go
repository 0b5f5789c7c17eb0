package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// CategoriesRepository provides persistence helpers for categories.
type CategoriesRepository struct {
	pool *pgxpool.Pool
}

// Exists reports whether a category with the given id is stored.
func (r *CategoriesRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return found, nil
}

// Create inserts a category, returning the existing row when the name is taken.
func (r *CategoriesRepository) Create(ctx context.Context, name string) (domain.Category, error) {
	const query = `
        INSERT INTO categories (name)
        VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id, name
    `
	var c domain.Category
	if err := r.pool.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name); err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// GetByID fetches a category by its identifier.
func (r *CategoriesRepository) GetByID(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Category{}, ErrNotFound
		}
		return domain.Category{}, err
	}
	return c, nil
}

// List returns every category ordered by name.
func (r *CategoriesRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func collectCategories(rows pgx.Rows) ([]domain.Category, error) {
	defer rows.Close()
	items := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
