package db

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// DSN is a postgres URL or keyword string. A "sqlite:" prefix or a
	// "file:" URI selects the embedded sqlite driver instead, for local runs.
	DSN    string
	LogSQL bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectRetries is the number of extra attempts Connect makes.
	ConnectRetries uint64
	RetryBase      time.Duration
	RetryCap       time.Duration
}

func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

func OpenGorm(cfg Config) (*gorm.DB, error) {
	lvl := logger.Silent
	if cfg.LogSQL {
		lvl = logger.Info
	}
	gdb, err := gorm.Open(dialector(cfg.DSN), &gorm.Config{
		Logger: logger.New(log.New(log.Writer(), "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return gdb, nil
}

// Connect opens the database and pings it, retrying with capped exponential
// backoff until it answers or the retries run out.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	base := cfg.RetryBase
	if base <= 0 {
		base = time.Second
	}
	maxDelay := cfg.RetryCap
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(maxDelay, b)
	b = retry.WithMaxRetries(cfg.ConnectRetries, b)

	var (
		gdb     *gorm.DB
		attempt int
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		conn, err := OpenGorm(cfg)
		if err == nil {
			sqlDB, dbErr := conn.DB()
			if dbErr != nil {
				return dbErr
			}
			if err = sqlDB.PingContext(ctx); err != nil {
				_ = sqlDB.Close()
			}
		}
		if err != nil {
			slog.Warn("database not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		gdb = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", attempt, err)
	}
	return gdb, nil
}
