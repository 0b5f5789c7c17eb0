package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/store"
	"github.com/Clark-Hu/movie-catalog/internal/testdb"
)

type fixture struct {
	srv        *Server
	directorID int64
	categoryID int64
}

func buildTestServer(tb testing.TB) *fixture {
	tb.Helper()
	cfg := config.Config{
		Port:               "0",
		ReadTimeoutSecs:    15,
		WriteTimeoutSecs:   15,
		IdleTimeoutSecs:    60,
		RequestTimeoutSecs: 5,
	}

	pool := testdb.New(tb, "movies_test_handlers", 42000)
	repo := repository.NewWithPool(pool)
	logger := log.New(io.Discard, "", 0)
	srv := New(cfg, store.FromPool(pool, logger), repo, catalog.NewFromRepository(repo, logger), logger)
	// Replace chi router to avoid default middleware noise.
	srv.router = chi.NewRouter()
	srv.registerRoutes()

	ctx := context.Background()
	director, err := repo.Directors.Create(ctx, repository.DirectorCreateParams{FirstName: "Christopher", LastName: "Nolan"})
	if err != nil {
		tb.Fatalf("create director: %v", err)
	}
	category, err := repo.Categories.Create(ctx, "Sci-Fi")
	if err != nil {
		tb.Fatalf("create category: %v", err)
	}
	return &fixture{srv: srv, directorID: director.ID, categoryID: category.ID}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createMovie(tb testing.TB, isan, title string) movieResponse {
	tb.Helper()
	rec := f.do(http.MethodPost,
		fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID),
		fmt.Sprintf(`{"isan":%q,"title":%q,"dateReleased":"2010-07-16"}`, isan, title))
	if rec.Code != http.StatusCreated {
		tb.Fatalf("create %s: status = %d, body = %s", isan, rec.Code, rec.Body.String())
	}
	var movie movieResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		tb.Fatalf("decode movie: %v", err)
	}
	return movie
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCreateMovieScenario(t *testing.T) {
	f := buildTestServer(t)

	movie := f.createMovie(t, "X1", "A")
	if movie.ID == 0 {
		t.Fatalf("created movie has no id")
	}

	byID := f.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", movie.ID), "")
	if byID.Code != http.StatusOK {
		t.Fatalf("get by id status = %d", byID.Code)
	}
	byIsan := f.do(http.MethodGet, "/api/movies/isan/X1", "")
	if byIsan.Code != http.StatusOK {
		t.Fatalf("get by isan status = %d", byIsan.Code)
	}

	dup := f.do(http.MethodPost,
		fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID),
		`{"isan":"X1","title":"A","dateReleased":"2010-07-16"}`)
	if dup.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate status = %d, want 422", dup.Code)
	}
	if code := decodeError(t, dup).Code; code != "DUPLICATE_IDENTIFIER" {
		t.Fatalf("duplicate code = %s", code)
	}

	unknown := f.do(http.MethodPost,
		fmt.Sprintf("/api/movies?dirId=999&catId=%d", f.categoryID),
		`{"isan":"X2","title":"B","dateReleased":"2010-07-16"}`)
	if unknown.Code != http.StatusNotFound {
		t.Fatalf("unknown director status = %d, want 404", unknown.Code)
	}
	if code := decodeError(t, unknown).Code; code != "UNKNOWN_DIRECTOR" {
		t.Fatalf("unknown director code = %s", code)
	}
}

func TestCreateMovie_MalformedInput(t *testing.T) {
	f := buildTestServer(t)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"no directors", fmt.Sprintf("/api/movies?catId=%d", f.categoryID), `{"isan":"M1","title":"A","dateReleased":"2010-07-16"}`, http.StatusBadRequest},
		{"no categories", fmt.Sprintf("/api/movies?dirId=%d", f.directorID), `{"isan":"M1","title":"A","dateReleased":"2010-07-16"}`, http.StatusBadRequest},
		{"empty body", fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID), "", http.StatusBadRequest},
		{"invalid json", fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID), "invalid json", http.StatusBadRequest},
		{"bad date", fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID), `{"isan":"M1","title":"A","dateReleased":"July"}`, http.StatusBadRequest},
		{"missing title", fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID), `{"isan":"M1","dateReleased":"2010-07-16"}`, http.StatusBadRequest},
		{"non-numeric id", "/api/movies?dirId=x&catId=1", `{"isan":"M1","title":"A","dateReleased":"2010-07-16"}`, http.StatusBadRequest},
		{"unknown category", fmt.Sprintf("/api/movies?dirId=%d&catId=999", f.directorID), `{"isan":"M1","title":"A","dateReleased":"2010-07-16"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestUpdateMovie(t *testing.T) {
	f := buildTestServer(t)
	movie := f.createMovie(t, "U1", "Before")
	query := fmt.Sprintf("?dirId=%d&catId=%d", f.directorID, f.categoryID)

	mismatch := f.do(http.MethodPut, fmt.Sprintf("/api/movies/%d%s", movie.ID, query),
		fmt.Sprintf(`{"id":%d,"isan":"U1","title":"After","dateReleased":"2010-07-16"}`, movie.ID+1))
	if mismatch.Code != http.StatusBadRequest {
		t.Fatalf("mismatch status = %d, want 400", mismatch.Code)
	}

	missing := f.do(http.MethodPut, fmt.Sprintf("/api/movies/%d%s", movie.ID+100, query),
		fmt.Sprintf(`{"id":%d,"isan":"U9","title":"After","dateReleased":"2010-07-16"}`, movie.ID+100))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", missing.Code)
	}

	ok := f.do(http.MethodPut, fmt.Sprintf("/api/movies/%d%s", movie.ID, query),
		fmt.Sprintf(`{"id":%d,"isan":"U1","title":"After","dateReleased":"2010-07-16"}`, movie.ID))
	if ok.Code != http.StatusNoContent {
		t.Fatalf("update status = %d, want 204 (body %s)", ok.Code, ok.Body.String())
	}

	other := f.createMovie(t, "U2", "Other")
	taken := f.do(http.MethodPut, fmt.Sprintf("/api/movies/%d%s", other.ID, query),
		fmt.Sprintf(`{"id":%d,"isan":"U1","title":"Other","dateReleased":"2010-07-16"}`, other.ID))
	if taken.Code != http.StatusUnprocessableEntity {
		t.Fatalf("taken isan status = %d, want 422", taken.Code)
	}
}

func TestDeleteMovieRemovesReviews(t *testing.T) {
	f := buildTestServer(t)
	movie := f.createMovie(t, "D1", "Doomed")

	for _, rating := range []int{2, 4, 6} {
		rec := f.do(http.MethodPost, fmt.Sprintf("/api/movies/%d/reviews", movie.ID),
			fmt.Sprintf(`{"headline":"take %d","rating":%d}`, rating, rating))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create review status = %d (body %s)", rec.Code, rec.Body.String())
		}
	}

	rating := f.do(http.MethodGet, fmt.Sprintf("/api/movies/%d/rating", movie.ID), "")
	if rating.Code != http.StatusOK {
		t.Fatalf("rating status = %d", rating.Code)
	}
	var agg ratingResponse
	if err := json.Unmarshal(rating.Body.Bytes(), &agg); err != nil {
		t.Fatalf("decode rating: %v", err)
	}
	if agg.Rating != 4 || agg.Count != 3 {
		t.Fatalf("rating = %+v, want 4 over 3", agg)
	}

	del := f.do(http.MethodDelete, fmt.Sprintf("/api/movies/%d", movie.ID), "")
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d (body %s)", del.Code, del.Body.String())
	}

	reviews, err := f.srv.repo.Reviews.ListByMovie(context.Background(), movie.ID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 0 {
		t.Fatalf("reviews left = %d, want 0", len(reviews))
	}
	if rec := f.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", movie.ID), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := f.do(http.MethodDelete, fmt.Sprintf("/api/movies/%d", movie.ID), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestGetMovieRating_Empty(t *testing.T) {
	f := buildTestServer(t)
	movie := f.createMovie(t, "R0", "Unrated")

	rec := f.do(http.MethodGet, fmt.Sprintf("/api/movies/%d/rating", movie.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var agg ratingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &agg); err != nil {
		t.Fatalf("decode rating: %v", err)
	}
	if agg.Rating != 0 || agg.Count != 0 {
		t.Fatalf("rating = %+v, want zero sentinel", agg)
	}

	if rec := f.do(http.MethodGet, "/api/movies/424242/rating", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing movie status = %d, want 404", rec.Code)
	}
}

func TestMovieAssociationsAndLookups(t *testing.T) {
	f := buildTestServer(t)
	movie := f.createMovie(t, "L1", "Listed")

	var directors []directorResponse
	rec := f.do(http.MethodGet, fmt.Sprintf("/api/movies/%d/directors", movie.ID), "")
	if err := json.Unmarshal(rec.Body.Bytes(), &directors); err != nil {
		t.Fatalf("decode directors: %v", err)
	}
	if len(directors) != 1 || directors[0].ID != f.directorID {
		t.Fatalf("directors = %+v", directors)
	}

	var categories []categoryResponse
	rec = f.do(http.MethodGet, fmt.Sprintf("/api/movies/%d/categories", movie.ID), "")
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categories) != 1 || categories[0].ID != f.categoryID {
		t.Fatalf("categories = %+v", categories)
	}

	if rec := f.do(http.MethodGet, "/api/movies/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id status = %d, want 400", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/movies/isan/NOPE", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown isan status = %d, want 404", rec.Code)
	}
	if rec := f.do(http.MethodGet, fmt.Sprintf("/api/directors/%d", f.directorID), ""); rec.Code != http.StatusOK {
		t.Fatalf("get director status = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/categories/999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown category status = %d, want 404", rec.Code)
	}

	var movies []movieResponse
	rec = f.do(http.MethodGet, "/api/movies", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &movies); err != nil {
		t.Fatalf("decode movies: %v", err)
	}
	if len(movies) != 1 || movies[0].Isan != "L1" {
		t.Fatalf("movies = %+v", movies)
	}
}

func TestCreateReview_Invalid(t *testing.T) {
	f := buildTestServer(t)
	movie := f.createMovie(t, "V1", "Reviewed")

	if rec := f.do(http.MethodPost, fmt.Sprintf("/api/movies/%d/reviews", movie.ID), `{"headline":"meh","rating":11}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("out of range rating status = %d, want 400", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/movies/999999/reviews", `{"headline":"meh","rating":3}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing movie status = %d, want 404", rec.Code)
	}
}

func TestHealthz_NoStore(t *testing.T) {
	srv := &Server{logger: log.New(io.Discard, "", 0)}
	rec := httptest.NewRecorder()
	srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthz_ReportsSchemaAndPool(t *testing.T) {
	f := buildTestServer(t)

	rec := f.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.Status != "ok" || resp.SchemaVersion != "0002_reviews.up.sql" {
		t.Fatalf("health = %+v", resp)
	}
	if resp.Pool.Max <= 0 || resp.Pool.Total < resp.Pool.Idle {
		t.Fatalf("pool = %+v", resp.Pool)
	}
}

func TestCreateMovie_WithoutReleaseDate(t *testing.T) {
	f := buildTestServer(t)

	rec := f.do(http.MethodPost,
		fmt.Sprintf("/api/movies?dirId=%d&catId=%d", f.directorID, f.categoryID),
		`{"isan":"ND1","title":"Undated"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode movie: %v", err)
	}
	if _, ok := raw["dateReleased"]; ok {
		t.Fatalf("undated movie carries dateReleased: %s", rec.Body.String())
	}
}
