package catalog

import (
	"context"
	"errors"

	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// Create validates and stores a new movie with its directors and categories.
// Any id on the input is ignored; the store assigns one.
func (s *Service) Create(ctx context.Context, directorIDs, categoryIDs []int64, movie *MovieInput) Outcome {
	var in *MovieInput
	if movie != nil {
		cp := *movie
		cp.ID = 0
		in = &cp
	}

	if out := s.Validate(ctx, directorIDs, categoryIDs, in); !out.OK() {
		return out
	}

	created, err := s.movies.Create(ctx, in.writeParams(uniqueIDs(directorIDs), uniqueIDs(categoryIDs)))
	if err != nil {
		return s.writeFailed("create", err)
	}
	s.logger.Printf("catalog: created movie %d (isan=%s)", created.ID, created.Isan)
	return Outcome{Kind: KindCreated, Movie: created}
}

// Update replaces movieID's fields and association set. The input id must
// equal movieID and the movie must already exist.
func (s *Service) Update(ctx context.Context, movieID int64, directorIDs, categoryIDs []int64, movie *MovieInput) Outcome {
	if out := s.checkInput(directorIDs, categoryIDs, movie); !out.OK() {
		return out
	}
	if movie.ID != movieID {
		return fail(KindIdentifierMismatch, "movie id in body does not match path")
	}

	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		s.logger.Printf("catalog: movie %d lookup failed: %v", movieID, err)
		return persistenceFailed(err)
	}
	if !exists {
		return fail(KindNotFound, "movie not found")
	}

	dirs, cats := uniqueIDs(directorIDs), uniqueIDs(categoryIDs)
	if out := s.checkReferences(ctx, dirs, cats, movie); !out.OK() {
		return out
	}

	updated, err := s.movies.Update(ctx, movie.writeParams(dirs, cats))
	if err != nil {
		return s.writeFailed("update", err)
	}
	return Outcome{Kind: KindUpdated, Movie: updated}
}

// writeFailed maps a store error raised after validation passed. A unique
// violation here means another request took the ISAN in between.
func (s *Service) writeFailed(op string, err error) Outcome {
	switch {
	case errors.Is(err, repository.ErrDuplicateIsan):
		return fail(KindDuplicateIdentifier, "Isan already exists")
	case errors.Is(err, repository.ErrNotFound):
		return fail(KindNotFound, "movie not found")
	}
	s.logger.Printf("catalog: %s movie failed: %v", op, err)
	return persistenceFailed(err)
}
