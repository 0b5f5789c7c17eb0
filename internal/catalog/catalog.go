// Package catalog holds the movie write pipeline: association validation,
// create/update of a movie with its directors and categories, the derived
// rating and the review-first delete.
package catalog

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// MovieStore is the subset of the movie repository the catalog relies on.
type MovieStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	IsDuplicateIsan(ctx context.Context, excludeID int64, isan string) (bool, error)
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
	Create(ctx context.Context, params repository.MovieWriteParams) (domain.Movie, error)
	Update(ctx context.Context, params repository.MovieWriteParams) (domain.Movie, error)
	Delete(ctx context.Context, id int64) error
}

// DirectorStore resolves director ids.
type DirectorStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// CategoryStore resolves category ids.
type CategoryStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReviewStore exposes the review operations needed for rating and delete.
type ReviewStore interface {
	ListByMovie(ctx context.Context, movieID int64) ([]domain.Review, error)
	DeleteMany(ctx context.Context, reviews []domain.Review) error
	Aggregate(ctx context.Context, movieID int64) (domain.RatingAggregate, error)
}

// MovieInput is the client-supplied movie for create and update. A zero
// DateReleased means the release date is unknown.
type MovieInput struct {
	ID           int64
	Isan         string `validate:"required,max=64"`
	Title        string `validate:"required,max=200"`
	DateReleased time.Time
}

func (in MovieInput) writeParams(directorIDs, categoryIDs []int64) repository.MovieWriteParams {
	return repository.MovieWriteParams{
		ID:           in.ID,
		Isan:         in.Isan,
		Title:        in.Title,
		DateReleased: in.DateReleased,
		DirectorIDs:  directorIDs,
		CategoryIDs:  categoryIDs,
	}
}

// Service runs catalog operations against the stores. It keeps no state of
// its own between calls.
type Service struct {
	movies     MovieStore
	directors  DirectorStore
	categories CategoryStore
	reviews    ReviewStore
	validate   *validator.Validate
	logger     *log.Logger
}

// New constructs a Service.
func New(movies MovieStore, directors DirectorStore, categories CategoryStore, reviews ReviewStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		movies:     movies,
		directors:  directors,
		categories: categories,
		reviews:    reviews,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// NewFromRepository wires a Service to the pgx-backed repositories.
func NewFromRepository(repo *repository.Repository, logger *log.Logger) *Service {
	return New(repo.Movies, repo.Directors, repo.Categories, repo.Reviews, logger)
}
