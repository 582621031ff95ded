package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"bulletnotes/internal/note/model"
	"bulletnotes/pkg/logger"

	_ "github.com/lib/pq"
)

type Options struct {
	Driver       string // defaults to "postgres"
	DSN          string
	Attempts     int
	RetryDelay   time.Duration
	MaxOpenConns int
}

var (
	mu   sync.Mutex
	pool *sql.DB
)

// Connect opens the shared connection pool and verifies it with a ping.
// Calling it again while connected returns the existing pool.
func Connect(ctx context.Context, opts Options) (*sql.DB, error) {
	mu.Lock()
	defer mu.Unlock()

	if pool != nil {
		logger.Sugar.Info("Database already connected")
		return pool, nil
	}

	driver := opts.Driver
	if driver == "" {
		driver = "postgres"
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w: %w", model.ErrStore, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			pool = db
			return pool, nil
		}
		if i < attempts {
			logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", opts.RetryDelay, err)
			select {
			case <-ctx.Done():
				db.Close()
				return nil, fmt.Errorf("connect database: %w: %w", model.ErrStore, ctx.Err())
			case <-time.After(opts.RetryDelay):
			}
		}
	}
	db.Close()
	return nil, fmt.Errorf("connect database after %d attempt(s): %w: %w", attempts, model.ErrStore, err)
}

// Close releases the shared pool so a later Connect opens a new one.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if pool == nil {
		return nil
	}
	err := pool.Close()
	pool = nil
	return err
}
