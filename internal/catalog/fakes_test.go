package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"time"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory stand-in for the pgx repositories. It records the
// order of destructive calls so tests can assert on it.
type memStore struct {
	nextID     int64
	movies     map[int64]domain.Movie
	directors  map[int64]bool
	categories map[int64]bool
	movieDirs  map[int64][]int64
	movieCats  map[int64][]int64
	reviews    []domain.Review
	calls      []string

	failDuplicateCheck bool
	failCreate         error
	failUpdate         error
	failDeleteReviews  bool
	failDeleteMovie    bool
	failAggregate      bool
}

func newMemStore() *memStore {
	return &memStore{
		movies:     make(map[int64]domain.Movie),
		directors:  map[int64]bool{1: true, 2: true},
		categories: map[int64]bool{2: true, 3: true},
		movieDirs:  make(map[int64][]int64),
		movieCats:  make(map[int64][]int64),
	}
}

func newTestService(st *memStore) *Service {
	return New(movieStoreOf{st}, directorStoreOf{st}, categoryStoreOf{st}, reviewStoreOf{st}, log.New(io.Discard, "", 0))
}

func (m *memStore) addMovie(isan, title string) domain.Movie {
	m.nextID++
	movie := domain.Movie{ID: m.nextID, Isan: isan, Title: title, DateReleased: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.movies[movie.ID] = movie
	return movie
}

func (m *memStore) addReview(movieID int64, rating int) {
	m.reviews = append(m.reviews, domain.Review{ID: int64(len(m.reviews) + 1), MovieID: movieID, Rating: rating})
}

type movieStoreOf struct{ m *memStore }

func (s movieStoreOf) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := s.m.movies[id]
	return ok, nil
}

func (s movieStoreOf) IsDuplicateIsan(_ context.Context, excludeID int64, isan string) (bool, error) {
	if s.m.failDuplicateCheck {
		return false, errStoreDown
	}
	for _, mv := range s.m.movies {
		if mv.Isan == isan && mv.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s movieStoreOf) GetByID(_ context.Context, id int64) (domain.Movie, error) {
	mv, ok := s.m.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return mv, nil
}

func (s movieStoreOf) Create(_ context.Context, p repository.MovieWriteParams) (domain.Movie, error) {
	s.m.calls = append(s.m.calls, "create-movie")
	if s.m.failCreate != nil {
		return domain.Movie{}, s.m.failCreate
	}
	s.m.nextID++
	mv := domain.Movie{ID: s.m.nextID, Isan: p.Isan, Title: p.Title, DateReleased: p.DateReleased}
	s.m.movies[mv.ID] = mv
	s.m.movieDirs[mv.ID] = append([]int64(nil), p.DirectorIDs...)
	s.m.movieCats[mv.ID] = append([]int64(nil), p.CategoryIDs...)
	return mv, nil
}

func (s movieStoreOf) Update(_ context.Context, p repository.MovieWriteParams) (domain.Movie, error) {
	s.m.calls = append(s.m.calls, "update-movie")
	if s.m.failUpdate != nil {
		return domain.Movie{}, s.m.failUpdate
	}
	if _, ok := s.m.movies[p.ID]; !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	mv := domain.Movie{ID: p.ID, Isan: p.Isan, Title: p.Title, DateReleased: p.DateReleased}
	s.m.movies[mv.ID] = mv
	s.m.movieDirs[mv.ID] = append([]int64(nil), p.DirectorIDs...)
	s.m.movieCats[mv.ID] = append([]int64(nil), p.CategoryIDs...)
	return mv, nil
}

func (s movieStoreOf) Delete(_ context.Context, id int64) error {
	s.m.calls = append(s.m.calls, "delete-movie")
	if s.m.failDeleteMovie {
		return errStoreDown
	}
	if _, ok := s.m.movies[id]; !ok {
		return repository.ErrNotFound
	}
	for _, rv := range s.m.reviews {
		if rv.MovieID == id {
			return errors.New("reviews still reference movie")
		}
	}
	delete(s.m.movies, id)
	delete(s.m.movieDirs, id)
	delete(s.m.movieCats, id)
	return nil
}

type directorStoreOf struct{ m *memStore }

func (s directorStoreOf) Exists(_ context.Context, id int64) (bool, error) {
	return s.m.directors[id], nil
}

type categoryStoreOf struct{ m *memStore }

func (s categoryStoreOf) Exists(_ context.Context, id int64) (bool, error) {
	return s.m.categories[id], nil
}

type reviewStoreOf struct{ m *memStore }

func (s reviewStoreOf) ListByMovie(_ context.Context, movieID int64) ([]domain.Review, error) {
	out := make([]domain.Review, 0)
	for _, rv := range s.m.reviews {
		if rv.MovieID == movieID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (s reviewStoreOf) DeleteMany(_ context.Context, reviews []domain.Review) error {
	s.m.calls = append(s.m.calls, "delete-reviews")
	if s.m.failDeleteReviews {
		return errStoreDown
	}
	drop := make(map[int64]bool, len(reviews))
	for _, rv := range reviews {
		drop[rv.ID] = true
	}
	kept := s.m.reviews[:0]
	for _, rv := range s.m.reviews {
		if !drop[rv.ID] {
			kept = append(kept, rv)
		}
	}
	s.m.reviews = kept
	return nil
}

func (s reviewStoreOf) Aggregate(_ context.Context, movieID int64) (domain.RatingAggregate, error) {
	if s.m.failAggregate {
		return domain.RatingAggregate{}, errStoreDown
	}
	var agg domain.RatingAggregate
	var sum int
	for _, rv := range s.m.reviews {
		if rv.MovieID == movieID {
			sum += rv.Rating
			agg.Count++
		}
	}
	if agg.Count > 0 {
		agg.Average = float64(sum) / float64(agg.Count)
	}
	return agg, nil
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
