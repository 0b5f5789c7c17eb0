package catalog

import (
	"context"
	"math"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// RatingOf returns the arithmetic mean of a movie's review ratings. A movie
// without reviews rates 0.
func (s *Service) RatingOf(ctx context.Context, movieID int64) Outcome {
	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		s.logger.Printf("catalog: movie %d lookup failed: %v", movieID, err)
		return persistenceFailed(err)
	}
	if !exists {
		return fail(KindNotFound, "movie not found")
	}

	agg, err := s.reviews.Aggregate(ctx, movieID)
	if err != nil {
		s.logger.Printf("catalog: rating of movie %d failed: %v", movieID, err)
		return persistenceFailed(err)
	}
	return Outcome{Kind: KindRated, Rating: normalizeRating(agg)}
}

func normalizeRating(agg domain.RatingAggregate) domain.RatingAggregate {
	if agg.Count <= 0 || math.IsNaN(agg.Average) {
		return domain.RatingAggregate{}
	}
	return agg
}
