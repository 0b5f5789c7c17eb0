package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

type directorResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country,omitempty"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type reviewRequest struct {
	Headline string `json:"headline" validate:"required,max=200"`
	Text     string `json:"reviewText" validate:"max=2000"`
	Rating   int    `json:"rating" validate:"required,min=1,max=10"`
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	MovieID   int64     `json:"movieId"`
	Headline  string    `json:"headline"`
	Text      string    `json:"reviewText"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListDirectors(w http.ResponseWriter, r *http.Request) {
	directors, err := s.repo.Directors.List(r.Context())
	if err != nil {
		s.respondLookupError(w, "directors", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toDirectorResponses(directors))
}

func (s *Server) handleGetDirector(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "directorId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}
	director, err := s.repo.Directors.GetByID(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "director", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toDirectorResponses([]domain.Director{director})[0])
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.Categories.List(r.Context())
	if err != nil {
		s.respondLookupError(w, "categories", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCategoryResponses(categories))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "categoryId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return
	}
	category, err := s.repo.Categories.GetByID(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "category", err)
		return
	}
	s.respondJSON(w, http.StatusOK, categoryResponse{ID: category.ID, Name: category.Name})
}

func (s *Server) handleListMovieDirectors(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.existingMovieID(w, r)
	if !ok {
		return
	}
	directors, err := s.repo.Movies.Directors(r.Context(), movieID)
	if err != nil {
		s.respondLookupError(w, "directors", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toDirectorResponses(directors))
}

func (s *Server) handleListMovieCategories(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.existingMovieID(w, r)
	if !ok {
		return
	}
	categories, err := s.repo.Movies.Categories(r.Context(), movieID)
	if err != nil {
		s.respondLookupError(w, "categories", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCategoryResponses(categories))
}

func (s *Server) handleListMovieReviews(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.existingMovieID(w, r)
	if !ok {
		return
	}
	reviews, err := s.repo.Reviews.ListByMovie(r.Context(), movieID)
	if err != nil {
		s.respondLookupError(w, "reviews", err)
		return
	}
	items := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		items = append(items, toReviewResponse(rv))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.existingMovieID(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Headline = strings.TrimSpace(req.Headline)
	if err := s.validate.StructCtx(r.Context(), req); err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", "headline is required and rating must be between 1 and 10")
		return
	}

	review, err := s.repo.Reviews.Create(r.Context(), repository.ReviewCreateParams{
		MovieID:  movieID,
		Headline: req.Headline,
		Text:     strings.TrimSpace(req.Text),
		Rating:   req.Rating,
	})
	if err != nil {
		s.logger.Printf("create review error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "Failed to create review")
		return
	}
	s.respondJSON(w, http.StatusCreated, toReviewResponse(review))
}

// existingMovieID parses {movieId} and confirms the movie exists, writing
// the error response itself when it does not.
func (s *Server) existingMovieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	movieID, err := idParam(r, "movieId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error())
		return 0, false
	}
	exists, err := s.repo.Movies.Exists(r.Context(), movieID)
	if err != nil {
		s.respondLookupError(w, "movie", err)
		return 0, false
	}
	if !exists {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "movie not found")
		return 0, false
	}
	return movieID, true
}

func toDirectorResponses(directors []domain.Director) []directorResponse {
	items := make([]directorResponse, 0, len(directors))
	for _, d := range directors {
		items = append(items, directorResponse{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName, Country: d.Country})
	}
	return items
}

func toCategoryResponses(categories []domain.Category) []categoryResponse {
	items := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, categoryResponse{ID: c.ID, Name: c.Name})
	}
	return items
}

func toReviewResponse(rv domain.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		MovieID:   rv.MovieID,
		Headline:  rv.Headline,
		Text:      rv.Text,
		Rating:    rv.Rating,
		CreatedAt: rv.CreatedAt,
	}
}
