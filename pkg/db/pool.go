// Package db wraps database/sql with validated pool configuration.
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/fluxorio/todolist/pkg/core"
)

// PoolConfig configures database connection pool (similar to HikariConfig)
type PoolConfig struct {
	// DSN is the database connection string
	DSN string

	// DriverName is the database/sql driver name (e.g. "sqlite3")
	DriverName string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle
	ConnMaxIdleTime time.Duration

	// PingTimeout bounds the connectivity check in NewPool. Zero disables the check.
	PingTimeout time.Duration
}

// DefaultPoolConfig returns HikariCP-like default configuration
func DefaultPoolConfig(dsn string, driverName string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		DriverName:      driverName,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// SingleWriterPoolConfig is DefaultPoolConfig narrowed to one connection,
// the safe setting for file-backed engines that serialize writers anyway.
func SingleWriterPoolConfig(dsn string, driverName string) PoolConfig {
	cfg := DefaultPoolConfig(dsn, driverName)
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 0
	cfg.ConnMaxIdleTime = 0
	return cfg
}

// Validate checks the configuration (fail-fast)
func (c PoolConfig) Validate() error {
	switch {
	case c.DSN == "":
		return &core.Error{Code: "INVALID_CONFIG", Message: "DSN cannot be empty"}
	case c.DriverName == "":
		return &core.Error{Code: "INVALID_CONFIG", Message: "DriverName cannot be empty"}
	case c.MaxOpenConns <= 0:
		return &core.Error{Code: "INVALID_CONFIG", Message: "MaxOpenConns must be positive"}
	case c.MaxIdleConns < 0:
		return &core.Error{Code: "INVALID_CONFIG", Message: "MaxIdleConns cannot be negative"}
	case c.MaxIdleConns > c.MaxOpenConns:
		return &core.Error{Code: "INVALID_CONFIG", Message: "MaxIdleConns cannot exceed MaxOpenConns"}
	case c.ConnMaxLifetime < 0 || c.ConnMaxIdleTime < 0:
		return &core.Error{Code: "INVALID_CONFIG", Message: "connection lifetimes cannot be negative"}
	}
	return nil
}

// Pool represents a database connection pool
type Pool struct {
	db     *sql.DB
	config PoolConfig
}

// NewPool creates a new database connection pool
func NewPool(config PoolConfig) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(config.DriverName, config.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if config.PingTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Pool{db: db, config: config}, nil
}

// DB returns the underlying *sql.DB
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Config returns the configuration the pool was built with
func (p *Pool) Config() PoolConfig {
	return p.config
}

// Close closes the connection pool
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return &core.Error{Code: "INVALID_STATE", Message: "pool not initialized"}
	}
	return p.db.Close()
}

// Stats returns pool statistics
func (p *Pool) Stats() sql.DBStats {
	if p == nil || p.db == nil {
		return sql.DBStats{}
	}
	return p.db.Stats()
}

// InTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func (p *Pool) InTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
