package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/monitoring"
	"github.com/tcmclinic/telemed/pkg/types"

	_ "github.com/lib/pq"
)

// DB represents the database connection
type DB struct {
	*sql.DB
	config *config.DatabaseConfig
	logger *logger.Logger
}

// NewConnection opens a bounded connection pool against DATABASE_URL.
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, types.NewUnavailableError("failed to open database connection", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, types.NewUnavailableError("failed to ping database", err)
	}

	db := &DB{
		DB:     sqlDB,
		config: cfg,
		logger: log,
	}

	log.Info("Database connection established")
	return db, nil
}

// NewWithDB wraps an existing sql.DB handle. Used by tests that inject a
// mocked connection.
func NewWithDB(sqlDB *sql.DB, log *logger.Logger) *DB {
	return &DB{
		DB:     sqlDB,
		config: &config.DatabaseConfig{},
		logger: log,
	}
}

// ExecContext runs a write statement and records its duration.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := db.DB.ExecContext(ctx, query, args...)
	monitoring.RecordDBQuery("exec", time.Since(start))
	return res, err
}

// QueryContext runs a multi-row read and records its duration.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	monitoring.RecordDBQuery("query", time.Since(start))
	return rows, err
}

// QueryRowContext runs a single-row read and records its duration.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := db.DB.QueryRowContext(ctx, query, args...)
	monitoring.RecordDBQuery("query_row", time.Since(start))
	return row
}

// QueryTimeout returns the bounded per-call timeout for storage operations.
func (db *DB) QueryTimeout() time.Duration {
	if db.config == nil || db.config.QueryTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(db.config.QueryTimeout) * time.Second
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
