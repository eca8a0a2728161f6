package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Driver           string // postgres | sqlite
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB bundles the ent SQL driver with the pool that backs it.
type DB struct {
	Driver *entsql.Driver
	pool   *pgxpool.Pool
}

// Connect opens the configured backend.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if cfg.Driver == "sqlite" {
		drv, err := OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &DB{Driver: drv}, nil
	}
	drv, pool, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &DB{Driver: drv, pool: pool}, nil
}

// Open creates a pgx pool and wraps it as an ent SQL driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*entsql.Driver, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "course-grounding"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	// Wrap pool as *sql.DB for ent's SQL driver
	db := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, db)

	logger.Info("successfully connected to database")
	return drv, pool, nil
}

// OpenSQLite opens (creating if needed) an embedded database file with foreign keys enforced.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*entsql.Driver, error) {
	logger.Info("opening sqlite database", "path", path)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	return entsql.OpenDB(dialect.SQLite, db), nil
}

// Close closes the database connections gracefully
func (d *DB) Close(logger *slog.Logger) {
	logger.Info("closing database connections")
	if d.Driver != nil {
		if err := d.Driver.Close(); err != nil {
			logger.Error("failed to close sql driver", "error", err)
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if d.pool != nil {
		err = d.pool.Ping(ctx)
	} else {
		err = d.Driver.DB().PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
