package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DB wraps the sql.DB handle of the SQLite record store
type DB struct {
	SQL  *sql.DB
	path string
	log  *logrus.Logger
}

// DSN builds the modernc.org/sqlite data source name with the pragmas applied on every connection.
func (c Config) DSN() string {
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	return fmt.Sprintf("file:%s?%s", c.Path, params.Encode())
}

// NewConnection opens the SQLite database, creating its directory when needed.
// The store is used by one request at a time, so a single connection is kept open.
func NewConnection(ctx context.Context, config Config, logger *logrus.Logger) (*DB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"path":         config.Path,
		"busy_timeout": config.BusyTimeout.String(),
	}).Info("Database connection established")

	return &DB{
		SQL:  sqlDB,
		path: config.Path,
		log:  logger,
	}, nil
}

// Close closes the database handle
func (db *DB) Close() error {
	if db.SQL == nil {
		return nil
	}
	if err := db.SQL.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	db.log.WithField("path", db.path).Info("Database connection closed")
	return nil
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Stats returns connection statistics
func (db *DB) Stats() sql.DBStats {
	return db.SQL.Stats()
}
