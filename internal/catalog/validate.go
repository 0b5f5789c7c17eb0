package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate runs the association checks for a proposed write and returns the
// first violation found, or KindValid. The checks run in a fixed order:
// input shape, duplicate ISAN (ignoring movie.ID itself), director ids,
// category ids. Nothing is written.
func (s *Service) Validate(ctx context.Context, directorIDs, categoryIDs []int64, movie *MovieInput) Outcome {
	if out := s.checkInput(directorIDs, categoryIDs, movie); !out.OK() {
		return out
	}
	return s.checkReferences(ctx, uniqueIDs(directorIDs), uniqueIDs(categoryIDs), movie)
}

func (s *Service) checkInput(directorIDs, categoryIDs []int64, movie *MovieInput) Outcome {
	if movie == nil || len(directorIDs) == 0 || len(categoryIDs) == 0 {
		return fail(KindMalformedInput, "Either movie, category or director doesn't exist")
	}
	if err := s.validate.Struct(movie); err != nil {
		return fail(KindMalformedInput, describeValidation(err))
	}
	return Outcome{Kind: KindValid}
}

func (s *Service) checkReferences(ctx context.Context, directorIDs, categoryIDs []int64, movie *MovieInput) Outcome {
	dup, err := s.movies.IsDuplicateIsan(ctx, movie.ID, movie.Isan)
	if err != nil {
		s.logger.Printf("catalog: duplicate isan check failed: %v", err)
		return persistenceFailed(err)
	}
	if dup {
		return fail(KindDuplicateIdentifier, "Isan already exists")
	}

	for _, id := range directorIDs {
		ok, err := s.directors.Exists(ctx, id)
		if err != nil {
			s.logger.Printf("catalog: director %d lookup failed: %v", id, err)
			return persistenceFailed(err)
		}
		if !ok {
			return fail(KindUnknownDirector, fmt.Sprintf("director %d not found", id))
		}
	}

	for _, id := range categoryIDs {
		ok, err := s.categories.Exists(ctx, id)
		if err != nil {
			s.logger.Printf("catalog: category %d lookup failed: %v", id, err)
			return persistenceFailed(err)
		}
		if !ok {
			return fail(KindUnknownCategory, fmt.Sprintf("category %d not found", id))
		}
	}

	return Outcome{Kind: KindValid}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid movie payload"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid movie: " + strings.Join(fields, ", ")
}

// uniqueIDs collapses repeated ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
