package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"

	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// Config holds database configuration
type Config struct {
	// Path is the location of the DuckDB file on disk
	Path string
	// ReadOnly opens the store without write access, for query-side consumers
	// that must never block the publisher
	ReadOnly bool
	// MaxOpenConns bounds the connection pool; DuckDB is embedded so a small
	// pool is plenty
	MaxOpenConns int
}

// RadarDB wraps sqlx.DB over the embedded analytical store with logging and metrics
type RadarDB struct {
	db      *sqlx.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	config  *Config
}

// NewRadarDB opens the DuckDB store at the configured path
func NewRadarDB(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*RadarDB, error) {
	// Ensure the parent directory exists before DuckDB tries to create the file
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	accessMode := "read_write"
	if cfg.ReadOnly {
		accessMode = "read_only"
	}
	dsn := fmt.Sprintf("%s?access_mode=%s", cfg.Path, accessMode)

	db, err := sqlx.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info(context.Background(), "[DB_INIT] DuckDB store opened", logging.Fields{
		"path":        cfg.Path,
		"access_mode": accessMode,
	})

	return &RadarDB{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		config:  cfg,
	}, nil
}

// Close closes the database connection
func (d *RadarDB) Close() error {
	d.logger.Info(context.Background(), "[DB_CLOSE] Closing store", logging.Fields{
		"path": d.config.Path,
	})
	return d.db.Close()
}

// DB returns the underlying sqlx.DB instance
func (d *RadarDB) DB() *sqlx.DB {
	return d.db
}

// ExecContext executes a command with context and metrics
func (d *RadarDB) ExecContext(ctx context.Context, queryType, query string, args ...interface{}) (sql.Result, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		d.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())

		d.logger.Debug(ctx, "[DB_EXEC] Command executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		d.metrics.RecordDBError("exec_error")
		d.logger.Error(ctx, "[DB_EXEC_ERROR] Command failed", logging.Fields{
			"query_type": queryType,
		}, err)
		return nil, err
	}

	return result, nil
}

// GetContext executes a query that returns a single row
func (d *RadarDB) GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		d.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	}()

	err := d.db.GetContext(ctx, dest, query, args...)
	if err != nil && err != sql.ErrNoRows {
		d.metrics.RecordDBError("get_error")
		d.logger.Error(ctx, "[DB_GET_ERROR] Get query failed", logging.Fields{
			"query_type": queryType,
		}, err)
	}

	return err
}

// SelectContext executes a query that returns multiple rows
func (d *RadarDB) SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		d.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	}()

	err := d.db.SelectContext(ctx, dest, query, args...)
	if err != nil {
		d.metrics.RecordDBError("select_error")
		d.logger.Error(ctx, "[DB_SELECT_ERROR] Select query failed", logging.Fields{
			"query_type": queryType,
		}, err)
		return err
	}

	return nil
}

// BeginTx begins a new transaction. Table publishes run DDL plus inserts in a
// single transaction so readers see either the old or the new complete table.
func (d *RadarDB) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		d.metrics.RecordDBError("transaction_begin_error")
		d.logger.Error(ctx, "[DB_TX_ERROR] Failed to begin transaction", logging.Fields{}, err)
		return nil, err
	}

	return tx, nil
}

// HealthCheck performs a database health check
func (d *RadarDB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
