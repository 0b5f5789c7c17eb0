package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// DirectorsRepository provides persistence helpers for directors.
type DirectorsRepository struct {
	pool *pgxpool.Pool
}

// DirectorCreateParams captures the payload required to insert a director.
type DirectorCreateParams struct {
	FirstName string
	LastName  string
	Country   string
}

// Exists reports whether a director with the given id is stored.
func (r *DirectorsRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM directors WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("director exists: %w", err)
	}
	return found, nil
}

// Create inserts a director row.
func (r *DirectorsRepository) Create(ctx context.Context, params DirectorCreateParams) (domain.Director, error) {
	const query = `
        INSERT INTO directors (first_name, last_name, country)
        VALUES ($1,$2,$3)
        RETURNING id, first_name, last_name, country
    `
	var d domain.Director
	err := r.pool.QueryRow(ctx, query, params.FirstName, params.LastName, params.Country).
		Scan(&d.ID, &d.FirstName, &d.LastName, &d.Country)
	if err != nil {
		return domain.Director{}, fmt.Errorf("create director: %w", err)
	}
	return d, nil
}

// GetByID fetches a director by its identifier.
func (r *DirectorsRepository) GetByID(ctx context.Context, id int64) (domain.Director, error) {
	const query = `SELECT id, first_name, last_name, country FROM directors WHERE id = $1`
	var d domain.Director
	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.FirstName, &d.LastName, &d.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Director{}, ErrNotFound
		}
		return domain.Director{}, err
	}
	return d, nil
}

// List returns every director ordered by last name.
func (r *DirectorsRepository) List(ctx context.Context) ([]domain.Director, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, first_name, last_name, country FROM directors ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	return collectDirectors(rows)
}

func collectDirectors(rows pgx.Rows) ([]domain.Director, error) {
	defer rows.Close()
	items := make([]domain.Director, 0)
	for rows.Next() {
		var d domain.Director
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Country); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
