package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateIsan is returned when a write collides with movies_isan_key.
	ErrDuplicateIsan = errors.New("repository: duplicate isan")
)

// Postgres error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies     *MoviesRepository
	Directors  *DirectorsRepository
	Categories *CategoriesRepository
	Reviews    *ReviewsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:     &MoviesRepository{pool: pool},
		Directors:  &DirectorsRepository{pool: pool},
		Categories: &CategoriesRepository{pool: pool},
		Reviews:    &ReviewsRepository{pool: pool},
	}
}
