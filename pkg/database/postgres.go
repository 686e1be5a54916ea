package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	_ "github.com/lib/pq"

	"crewdesk/pkg/logging"
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
}

// DefaultConfig returns default database configuration
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// NormalizeURL sanitizes a user-supplied Postgres connection string so it
// parses cleanly downstream. Copy-pasted URLs routinely arrive with embedded
// whitespace and the legacy postgresql:// prefix; hosted providers also
// reject plaintext connections, so sslmode=require is appended when no
// sslmode parameter is present. An empty input stays empty.
func NormalizeURL(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "postgresql://") {
		cleaned = "postgres://" + strings.TrimPrefix(cleaned, "postgresql://")
	}
	if !strings.Contains(cleaned, "sslmode=") {
		if strings.Contains(cleaned, "?") {
			cleaned += "&sslmode=require"
		} else {
			cleaned += "?sslmode=require"
		}
	}
	return cleaned
}

// ComposeURL builds a connection string from discrete fields, URL-escaping
// the credentials. Returns "" when any required field is missing, which
// callers must treat as "no database configured" rather than an error.
func ComposeURL(host, user, password, dbname, port string) string {
	host = strings.TrimSpace(host)
	user = strings.TrimSpace(user)
	dbname = strings.TrimSpace(dbname)
	if host == "" || user == "" || password == "" || dbname == "" {
		return ""
	}
	if port = strings.TrimSpace(port); port == "" {
		port = "5432"
	}
	composed := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + port,
		Path:     "/" + dbname,
		RawQuery: "sslmode=require",
	}
	return composed.String()
}

// Connect establishes a database connection with the given configuration
func Connect(cfg Config, logger logging.Logger) (PostgresConn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.WithFields(logging.Fields{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime,
	}).Info("Database connected")

	return db, nil
}
