package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	_ "github.com/lib/pq"

	"github.com/mkivikoski/eyeguard/pkg/config"
)

// postgresClient wraps a Postgres connection pool
type postgresClient struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
}

// NewClient creates a new Postgres client
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	return &postgresClient{
		cfg:    cfg,
		logger: logger,
	}
}

// Connect opens the pool and verifies it with a ping, retrying with
// backoff. The daemon starts before the database in most deployments,
// so an initially unreachable server is expected, not fatal.
func (c *postgresClient) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to Postgres",
		"host", c.cfg.PostgresHost,
		"port", c.cfg.PostgresPort,
		"database", c.cfg.PostgresDB)

	db, err := sql.Open("postgres", c.cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Postgres ping failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	c.db = db
	c.logger.Info("Connected to Postgres")
	return nil
}

// Disconnect closes the Postgres connection
func (c *postgresClient) Disconnect() error {
	if c.db == nil {
		return nil
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}
	c.db = nil
	return nil
}

// Exec executes a query without returning rows
func (c *postgresClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.db == nil {
		return nil, fmt.Errorf("postgres client not connected")
	}
	return c.db.ExecContext(ctx, query, args...)
}

// QueryRow executes a query that returns a single row
func (c *postgresClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if c.db == nil {
		// Scanning this row reports the missing connection
		return &sql.Row{}
	}
	return c.db.QueryRowContext(ctx, query, args...)
}

// IsConnected returns whether the client holds an open pool
func (c *postgresClient) IsConnected() bool {
	return c.db != nil
}
