package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

// PostgresConn represents a PostgreSQL database connection
type PostgresConn = *sql.DB

// ErrNoRows is returned when a query returns no rows
var ErrNoRows = sql.ErrNoRows

// Config holds database configuration
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// StatementTimeout bounds every query issued over this connection. The
	// live poller and the broadcaster's gRPC edge both run on a fixed tick
	// cadence (see internal/schedule); a query that outlives one tick is
	// worse than one that fails fast and lets the next tick retry.
	StatementTimeout time.Duration
}

// DefaultConfig returns default database configuration
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:     25,
		MaxIdleConns:     5,
		ConnMaxLifetime:  5 * time.Minute,
		StatementTimeout: 15 * time.Second,
	}
}

// Connect establishes a database connection with the given configuration
func Connect(cfg Config, logger logging.Logger) (PostgresConn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	dsn, err := withStatementTimeout(cfg.URL, cfg.StatementTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to apply statement_timeout to database URL: %w", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.WithFields(logging.Fields{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime,
		"statement_timeout": cfg.StatementTimeout,
	}).Info("Database connected")

	return db, nil
}

// withStatementTimeout folds statement_timeout into the connection URL's
// libpq "options" parameter, since a plain "SET statement_timeout" issued
// after Ping only affects the one pooled connection it ran on — every other
// physical connection sql.DB opens later would still run unbounded.
func withStatementTimeout(rawURL string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return rawURL, nil
	}
	opt := fmt.Sprintf("-c statement_timeout=%d", timeout.Milliseconds())

	if !strings.Contains(rawURL, "://") {
		return fmt.Sprintf("%s options='%s'", strings.TrimSpace(rawURL), opt), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if existing := q.Get("options"); existing != "" {
		q.Set("options", existing+" "+opt)
	} else {
		q.Set("options", opt)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MustConnect is like Connect but exits the process via logger.Fatal on error
func MustConnect(cfg Config, logger logging.Logger) PostgresConn {
	db, err := Connect(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	return db
}
