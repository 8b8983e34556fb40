package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

// PoolOptions — параметры пула соединений и ожидания старта базы.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// PingAttempts — сколько раз пробовать достучаться до базы при старте.
	PingAttempts int
	RetryDelay   time.Duration
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
		PingAttempts:    5,
		RetryDelay:      2 * time.Second,
	}
}

// Connect открывает пул и ждёт, пока база начнёт отвечать.
func Connect(ctx context.Context, dsn string, opts PoolOptions, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := waitForDB(ctx, db, opts, logger); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return db, nil
}

func waitForDB(ctx context.Context, db *sql.DB, opts PoolOptions, logger *slog.Logger) error {
	attempts := max(opts.PingAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.Warn("database is not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", opts.RetryDelay),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}
