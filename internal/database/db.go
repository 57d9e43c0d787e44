package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// DB wraps the database connection with dialect support.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Options selects the storage backend.
type Options struct {
	// Type is "sqlite" (default), "postgres" or "mysql".
	Type string
	// Path is the database file for SQLite.
	Path string
	// URL is the connection string for PostgreSQL/MySQL.
	URL string
}

// Open creates and configures the database connection.
func Open(opts Options) (*DB, error) {
	var dialect Dialect
	var cfg DialectConfig

	switch strings.ToLower(opts.Type) {
	case "postgres", "postgresql":
		dialect = NewPostgresDialect()
		cfg = DialectConfig{URL: opts.URL}
	case "mysql":
		dialect = NewMySQLDialect()
		cfg = DialectConfig{URL: opts.URL}
	case "sqlite", "sqlite3", "":
		dialect = NewSQLiteDialect()
		cfg = DialectConfig{Path: opts.Path}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", opts.Type)
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// Query executes a query with automatic placeholder rewriting.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.Query(db.Dialect.RewriteQuery(query), args...)
}

// QueryRow executes a single-row query with automatic placeholder rewriting.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRow(db.Dialect.RewriteQuery(query), args...)
}

// Exec executes a statement with automatic placeholder rewriting.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(db.Dialect.RewriteQuery(query), args...)
}

// ExecReturningID executes an INSERT and returns the new row's ID, handling
// the difference between LastInsertId drivers and PostgreSQL's RETURNING.
func (db *DB) ExecReturningID(query string, args ...interface{}) (int64, error) {
	return execReturningID(db.DB, db.Dialect, query, args...)
}

// GetDialect returns the database dialect.
func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func execReturningID(e execer, dialect Dialect, query string, args ...interface{}) (int64, error) {
	rewritten := dialect.RewriteQuery(query)

	if dialect.SupportsLastInsertId() {
		result, err := e.Exec(rewritten, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	rewritten = strings.TrimSuffix(strings.TrimSpace(rewritten), ";") + " RETURNING id"

	var id int64
	if err := e.QueryRow(rewritten, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
