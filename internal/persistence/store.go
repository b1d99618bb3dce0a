// Package persistence stores project definitions in SQLite so plans can be
// analysed again without the source file. Analysis results are never stored.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	"github.com/aristath/crewplan/internal/scheduler"
)

// ErrProjectNotFound is returned when no project is stored under a name.
var ErrProjectNotFound = errors.New("project not found")

// ProjectInfo summarises a stored project.
type ProjectInfo struct {
	Name      string
	Tasks     int
	UpdatedAt time.Time
}

// Store defines the project catalog interface.
type Store interface {
	SaveProject(ctx context.Context, name string, specs []scheduler.TaskSpec) error
	LoadProject(ctx context.Context, name string) ([]scheduler.TaskSpec, error)
	ListProjects(ctx context.Context) ([]ProjectInfo, error)
	DeleteProject(ctx context.Context, name string) error

	// Lifecycle
	Close() error
}

// RetryConfig configures exponential backoff while the database is opened.
type RetryConfig struct {
	InitialInterval time.Duration // Initial retry interval (default 50ms)
	MaxInterval     time.Duration // Maximum retry interval (default 1s)
	MaxElapsedTime  time.Duration // Maximum total retry time (default 5s)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		MaxElapsedTime:  5 * time.Second,
	}
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var memoryStores atomic.Int64

// NewSQLiteStore creates a new SQLite-backed store at the given path.
// Creates parent directories if needed. Enables WAL mode, foreign keys, and busy timeout.
// The first connection is retried with backoff since another process may hold the file locked.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	// Note: modernc.org/sqlite doesn't support _foreign_keys in connection string
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	return open(ctx, connStr, DefaultRetryConfig())
}

// NewMemoryStore creates an in-memory SQLite store for testing.
// Each call gets its own database, shared between that store's connections.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	connStr := fmt.Sprintf("file:crewplan-%d?mode=memory&cache=shared", memoryStores.Add(1))
	return open(ctx, connStr, DefaultRetryConfig())
}

func open(ctx context.Context, connStr string, retryCfg RetryConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pingWithRetry(ctx, db, retryCfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable foreign keys via PRAGMA (required for modernc.org/sqlite)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Foreign keys are a per-connection setting
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// pingWithRetry pings the database with exponential backoff.
func pingWithRetry(ctx context.Context, db *sql.DB, retryCfg RetryConfig) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryCfg.InitialInterval
	b.MaxInterval = retryCfg.MaxInterval
	b.MaxElapsedTime = retryCfg.MaxElapsedTime

	operation := func() error {
		// Check context first - fail fast if cancelled
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return db.PingContext(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
