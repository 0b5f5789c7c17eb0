package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

// ReviewCreateParams captures the payload required to insert a review.
type ReviewCreateParams struct {
	MovieID  int64
	Headline string
	Text     string
	Rating   int
}

const reviewColumns = `id, movie_id, headline, review, rating, created_at`

// Create inserts a review for an existing movie.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        INSERT INTO reviews (movie_id, headline, review, rating)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, reviewColumns)

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, params.MovieID, params.Headline, params.Text, params.Rating).
		Scan(&rv.ID, &rv.MovieID, &rv.Headline, &rv.Text, &rv.Rating, &rv.CreatedAt)
	if err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	return rv, nil
}

// ListByMovie returns every review referencing movieID, oldest first.
func (r *ReviewsRepository) ListByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE movie_id = $1 ORDER BY created_at, id`, reviewColumns)
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.MovieID, &rv.Headline, &rv.Text, &rv.Rating, &rv.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteMany removes the given reviews in a single statement.
func (r *ReviewsRepository) DeleteMany(ctx context.Context, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.ID)
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	return nil
}

// Aggregate returns the rating average and count for a movie.
func (r *ReviewsRepository) Aggregate(ctx context.Context, movieID int64) (domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(AVG(rating)::float8, 0) AS average,
               COUNT(*)::int8 AS count
        FROM reviews
        WHERE movie_id = $1
    `

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, movieID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}
