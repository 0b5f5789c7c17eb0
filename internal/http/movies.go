package httpserver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

const dateLayout = "2006-01-02"

type movieRequest struct {
	ID           int64  `json:"id"`
	Isan         string `json:"isan"`
	Title        string `json:"title"`
	DateReleased string `json:"dateReleased"`
}

type movieResponse struct {
	ID           int64  `json:"id"`
	Isan         string `json:"isan"`
	Title        string `json:"title"`
	DateReleased string `json:"dateReleased,omitempty"`
}

type ratingResponse struct {
	MovieID int64   `json:"movieId"`
	Rating  float64 `json:"rating"`
	Count   int64   `json:"count"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.repo.Movies.List(r.Context())
	if err != nil {
		s.logger.Printf("list movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to list movies")
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "movieId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}

	movie, err := s.repo.Movies.GetByID(r.Context(), movieID)
	if err != nil {
		s.respondLookupError(w, "movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleGetMovieByIsan(w http.ResponseWriter, r *http.Request) {
	isan, err := url.PathUnescape(chi.URLParam(r, "isan"))
	if err != nil || strings.TrimSpace(isan) == "" {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", "invalid isan parameter")
		return
	}

	movie, err := s.repo.Movies.GetByIsan(r.Context(), isan)
	if err != nil {
		s.respondLookupError(w, "movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleGetMovieRating(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "movieId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}

	out := s.catalog.RatingOf(r.Context(), movieID)
	if !out.OK() {
		s.respondOutcome(w, out)
		return
	}
	s.respondJSON(w, http.StatusOK, ratingResponse{
		MovieID: movieID,
		Rating:  roundRating(out.Rating.Average),
		Count:   out.Rating.Count,
	})
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	directorIDs, categoryIDs, err := associationParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}
	movie, ok := s.decodeMovie(w, r)
	if !ok {
		return
	}

	out := s.catalog.Create(r.Context(), directorIDs, categoryIDs, movie)
	if !out.OK() {
		s.respondOutcome(w, out)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/movies/%d", out.Movie.ID))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(out.Movie))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "movieId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}
	directorIDs, categoryIDs, err := associationParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}
	movie, ok := s.decodeMovie(w, r)
	if !ok {
		return
	}

	out := s.catalog.Update(r.Context(), movieID, directorIDs, categoryIDs, movie)
	if !out.OK() {
		s.respondOutcome(w, out)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "movieId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}

	out := s.catalog.Delete(r.Context(), movieID)
	if !out.OK() {
		s.respondOutcome(w, out)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// roundRating keeps two decimals for display.
func roundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// decodeMovie reads the request body into a catalog input. An empty body
// yields a nil movie so the catalog reports it as malformed input.
func (s *Server) decodeMovie(w http.ResponseWriter, r *http.Request) (*catalog.MovieInput, bool) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		s.respondDecodeError(w, err)
		return nil, false
	}

	in := &catalog.MovieInput{
		ID:    req.ID,
		Isan:  strings.TrimSpace(req.Isan),
		Title: strings.TrimSpace(req.Title),
	}
	if raw := strings.TrimSpace(req.DateReleased); raw != "" {
		released, err := parseReleaseDate(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", "dateReleased must follow YYYY-MM-DD format")
			return nil, false
		}
		in.DateReleased = released
	}
	return in, true
}

func parseReleaseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// associationParams reads dirId and catId from the query. Each may repeat
// (dirId=1&dirId=2) or carry a comma-separated list.
func associationParams(query url.Values) ([]int64, []int64, error) {
	directorIDs, err := parseIDs(query["dirId"])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid dirId value")
	}
	categoryIDs, err := parseIDs(query["catId"])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid catId value")
	}
	return directorIDs, categoryIDs, nil
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func (s *Server) respondLookupError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", entity+" not found")
		return
	}
	s.logger.Printf("fetch %s failed: %v", entity, err)
	s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to fetch "+entity)
}

func toMovieResponse(movie domain.Movie) movieResponse {
	resp := movieResponse{
		ID:    movie.ID,
		Isan:  movie.Isan,
		Title: movie.Title,
	}
	if !movie.DateReleased.IsZero() {
		resp.DateReleased = movie.DateReleased.Format(dateLayout)
	}
	return resp
}
