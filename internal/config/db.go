package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"voting_rooms/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN           string
	MaxRetries    int
	RetryInterval time.Duration
}

// LoadDBConfig loads database configuration from environment variables.
// DATABASE_URL wins over the individual DB_* variables when set.
func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{MaxRetries: 5, RetryInterval: 5 * time.Second}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DSN = dsn
		return cfg, nil
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPassword),
		Host:     dbHost + ":" + dbPort,
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	cfg.DSN = u.String()

	return cfg, nil
}

// ConnectDB establishes a connection pool to the PostgreSQL database,
// retrying a few times while the database comes up.
func ConnectDB(ctx context.Context, cfg *DBConfig, log logging.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				log.Info(ctx, "connected to PostgreSQL")
				return pool, nil
			}
			pool.Close()
		}
		log.Warn(ctx, "failed to connect to database",
			"attempt", i+1, "max_attempts", attempts, "retry_in", cfg.RetryInterval, "error", err)

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection aborted: %w", ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", attempts, err)
}
