package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/config"
)

var errNotOpen = errors.New("store not open")

// Options tunes the pool. Zero values keep the pgxpool defaults; a negative
// StatementCacheCapacity keeps the default exec mode.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 *log.Logger
}

// OptionsFromConfig maps the DB_* settings onto pool options.
func OptionsFromConfig(cfg config.Config, logger *log.Logger) Options {
	return Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}
}

// Store is the catalog database: the pgx pool plus the schema migrations
// applied to it.
type Store struct {
	pool        *pgxpool.Pool
	logger      *log.Logger
	pingTimeout time.Duration
}

// Health is what /healthz reports about the database.
type Health struct {
	SchemaVersion string
	TotalConns    int32
	IdleConns     int32
	AcquiredConns int32
	MaxConns      int32
}

// New opens a pool against dbURL and pings it before returning.
func New(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	tune(cfg, opts)

	connCtx, cancel := withTimeout(ctx, opts.ConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	st := FromPool(pool, opts.Logger)
	st.pingTimeout = opts.ConnTimeout
	st.logger.Printf("store: connected (max_conns=%d, min_conns=%d)", cfg.MaxConns, cfg.MinConns)
	return st, nil
}

// FromPool wraps an already open pool.
func FromPool(pool *pgxpool.Pool, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{pool: pool, logger: logger}
}

func tune(cfg *pgxpool.Config, opts Options) {
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity >= 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Close releases the pool.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Pool exposes the pgx pool to the repositories.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Health pings the database and reports the latest applied migration and
// current pool usage.
func (s *Store) Health(ctx context.Context) (Health, error) {
	if s == nil || s.pool == nil {
		return Health{}, errNotOpen
	}
	ctx, cancel := withTimeout(ctx, s.pingTimeout)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return Health{}, fmt.Errorf("ping postgres: %w", err)
	}
	version, err := SchemaVersion(ctx, s.pool)
	if err != nil {
		return Health{}, err
	}

	stat := s.pool.Stat()
	return Health{
		SchemaVersion: version,
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}, nil
}
