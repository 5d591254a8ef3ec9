package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pool is the global database connection pool
var Pool *pgxpool.Pool

// ErrNoDatabase is returned by every query when no database is configured.
var ErrNoDatabase = errors.New("database not available")

// URLFromEnv returns DATABASE_URL, or a URL assembled from DB_HOST, DB_PORT,
// DB_USER, DB_PASSWORD and DB_NAME. It returns "" when neither is set.
func URLFromEnv() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	dbname := os.Getenv("DB_NAME")
	if host == "" || user == "" || dbname == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		user, os.Getenv("DB_PASSWORD"), host, port, dbname)
}

// Init initializes the database connection pool. Without configuration it
// returns ErrNoDatabase and the service runs in parse-only mode.
func Init(log *zap.Logger) error {
	databaseURL := URLFromEnv()
	if databaseURL == "" {
		log.Info("no database configuration found, running in parse-only mode")
		return ErrNoDatabase
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return errors.Wrap(err, "failed to parse database URL")
	}

	// Connection pool settings optimized for PgBouncer
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return errors.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return errors.Wrap(err, "failed to ping database")
	}

	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	Pool = pool
	log.Info("database connection pool initialized")
	return nil
}

// Close closes the database connection pool
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}

// Ping reports whether the database is reachable.
func Ping(ctx context.Context) error {
	if Pool == nil {
		return ErrNoDatabase
	}
	return Pool.Ping(ctx)
}
