package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities and their
// director/category associations.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id,
    isan,
    title,
    date_released
`

// MovieWriteParams bundles a movie row with the full association set that
// must be stored alongside it.
type MovieWriteParams struct {
	ID           int64
	Isan         string
	Title        string
	DateReleased time.Time
	DirectorIDs  []int64
	CategoryIDs  []int64
}

// Exists reports whether a movie with the given id is stored.
func (r *MoviesRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE id = $1)`, id)
}

// ExistsByIsan reports whether a movie with the given ISAN is stored.
func (r *MoviesRepository) ExistsByIsan(ctx context.Context, isan string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE isan = $1)`, isan)
}

// IsDuplicateIsan reports whether a movie other than excludeID already holds isan.
func (r *MoviesRepository) IsDuplicateIsan(ctx context.Context, excludeID int64, isan string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE isan = $1 AND id <> $2)`, isan, excludeID)
}

func (r *MoviesRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("movie exists: %w", err)
	}
	return found, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	return r.getOne(ctx, query, id)
}

// GetByIsan fetches a movie by its ISAN code.
func (r *MoviesRepository) GetByIsan(ctx context.Context, isan string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE isan = $1`, movieColumns)
	return r.getOne(ctx, query, isan)
}

func (r *MoviesRepository) getOne(ctx context.Context, query string, arg interface{}) (domain.Movie, error) {
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// List returns every movie ordered by title.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY title, id`, movieColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts the movie row and its association rows in one transaction
// and returns the stored entity with its assigned id.
func (r *MoviesRepository) Create(ctx context.Context, params MovieWriteParams) (domain.Movie, error) {
	var movie domain.Movie
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
        INSERT INTO movies (isan, title, date_released)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, movieColumns)

		var err error
		movie, err = scanMovie(tx.QueryRow(ctx, query, params.Isan, params.Title, releaseDate(params.DateReleased)))
		if err != nil {
			return err
		}
		return writeAssociations(ctx, tx, movie.ID, params.DirectorIDs, params.CategoryIDs)
	})
	if err != nil {
		return domain.Movie{}, translateWriteError("create movie", err)
	}
	return movie, nil
}

// Update replaces the stored fields of params.ID and swaps its association
// rows for the requested set. Either everything is applied or nothing is.
func (r *MoviesRepository) Update(ctx context.Context, params MovieWriteParams) (domain.Movie, error) {
	var movie domain.Movie
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
        UPDATE movies
        SET isan = $2,
            title = $3,
            date_released = $4,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, movieColumns)

		var err error
		movie, err = scanMovie(tx.QueryRow(ctx, query, params.ID, params.Isan, params.Title, releaseDate(params.DateReleased)))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM movie_directors WHERE movie_id = $1`, movie.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM movie_categories WHERE movie_id = $1`, movie.ID); err != nil {
			return err
		}
		return writeAssociations(ctx, tx, movie.ID, params.DirectorIDs, params.CategoryIDs)
	})
	if err != nil {
		return domain.Movie{}, translateWriteError("update movie", err)
	}
	return movie, nil
}

// Delete removes the movie row; association rows go with it through
// ON DELETE CASCADE. Reviews do not cascade and must already be gone.
func (r *MoviesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("delete movie %d: still referenced by %s: %w", id, pgErr.TableName, err)
		}
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Directors returns the directors associated with a movie.
func (r *MoviesRepository) Directors(ctx context.Context, movieID int64) ([]domain.Director, error) {
	const query = `
        SELECT d.id, d.first_name, d.last_name, d.country
        FROM directors d
        JOIN movie_directors md ON md.director_id = d.id
        WHERE md.movie_id = $1
        ORDER BY d.id
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	return collectDirectors(rows)
}

// Categories returns the categories associated with a movie.
func (r *MoviesRepository) Categories(ctx context.Context, movieID int64) ([]domain.Category, error) {
	const query = `
        SELECT c.id, c.name
        FROM categories c
        JOIN movie_categories mc ON mc.category_id = c.id
        WHERE mc.movie_id = $1
        ORDER BY c.id
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func writeAssociations(ctx context.Context, tx pgx.Tx, movieID int64, directorIDs, categoryIDs []int64) error {
	batch := &pgx.Batch{}
	for _, id := range directorIDs {
		batch.Queue(`INSERT INTO movie_directors (movie_id, director_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, movieID, id)
	}
	for _, id := range categoryIDs {
		batch.Queue(`INSERT INTO movie_categories (movie_id, category_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, movieID, id)
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func translateWriteError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "movies_isan_key" {
		return ErrDuplicateIsan
	}
	return fmt.Errorf("%s: %w", op, err)
}

// releaseDate stores an unknown (zero) release date as NULL.
func releaseDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	var released *time.Time
	err := row.Scan(
		&movie.ID,
		&movie.Isan,
		&movie.Title,
		&released,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	if released != nil {
		movie.DateReleased = *released
	}
	return movie, nil
}
