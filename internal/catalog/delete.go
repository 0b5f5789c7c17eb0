package catalog

import (
	"context"
	"errors"

	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// Delete removes a movie after removing every review that references it.
// If the reviews cannot be removed the movie is left as it was.
func (s *Service) Delete(ctx context.Context, movieID int64) Outcome {
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(KindNotFound, "movie not found")
		}
		s.logger.Printf("catalog: movie %d lookup failed: %v", movieID, err)
		return persistenceFailed(err)
	}

	reviews, err := s.reviews.ListByMovie(ctx, movieID)
	if err != nil {
		s.logger.Printf("catalog: list reviews of movie %d failed: %v", movieID, err)
		return persistenceFailed(err)
	}
	if err := s.reviews.DeleteMany(ctx, reviews); err != nil {
		s.logger.Printf("catalog: delete %d reviews of movie %d failed: %v", len(reviews), movieID, err)
		return persistenceFailed(err)
	}

	if err := s.movies.Delete(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(KindNotFound, "movie not found")
		}
		s.logger.Printf("catalog: delete movie %d failed: %v", movieID, err)
		return persistenceFailed(err)
	}
	s.logger.Printf("catalog: deleted movie %d with %d reviews", movieID, len(reviews))
	return Outcome{Kind: KindDeleted, Movie: movie}
}
