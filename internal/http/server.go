package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// HealthChecker reports on the backing store.
type HealthChecker interface {
	Health(ctx context.Context) (store.Health, error)
}

type healthResponse struct {
	Status        string    `json:"status"`
	SchemaVersion string    `json:"schemaVersion"`
	Pool          poolStats `json:"pool"`
}

type poolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	repo     *repository.Repository
	catalog  *catalog.Service
	validate *validator.Validate
	logger   *log.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, health HealthChecker, repo *repository.Repository, svc *catalog.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeoutSecs > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.RequestTimeoutSecs) * time.Second))
	}

	s := &Server{
		cfg:      cfg,
		health:   health,
		repo:     repo,
		catalog:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", s.handleListMovies)
			r.Post("/", s.handleCreateMovie)
			r.Get("/isan/{isan}", s.handleGetMovieByIsan)
			r.Route("/{movieId}", func(r chi.Router) {
				r.Get("/", s.handleGetMovie)
				r.Put("/", s.handleUpdateMovie)
				r.Delete("/", s.handleDeleteMovie)
				r.Get("/rating", s.handleGetMovieRating)
				r.Get("/directors", s.handleListMovieDirectors)
				r.Get("/categories", s.handleListMovieCategories)
				r.Get("/reviews", s.handleListMovieReviews)
				r.Post("/reviews", s.handleCreateReview)
			})
		})
		r.Get("/directors", s.handleListDirectors)
		r.Get("/directors/{directorId}", s.handleGetDirector)
		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/{categoryId}", s.handleGetCategory)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	h, err := s.health.Health(ctx)
	if err != nil {
		s.logger.Printf("health check failed: %v", err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		SchemaVersion: h.SchemaVersion,
		Pool: poolStats{
			Total:    h.TotalConns,
			Idle:     h.IdleConns,
			Acquired: h.AcquiredConns,
			Max:      h.MaxConns,
		},
	})
}
