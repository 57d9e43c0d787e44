package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations.
type Dialect interface {
	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN returns the data source name for the connection.
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g. ? to $1).
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId.
	SupportsLastInsertId() bool

	// ConfigureConnection applies database-specific connection settings.
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the migrations subdirectory for the dialect.
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL creating the migrations
	// tracking table.
	CreateMigrationsTableQuery() string
}

// DialectConfig holds configuration for the database connection.
type DialectConfig struct {
	// For SQLite.
	Path string

	// For PostgreSQL/MySQL.
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
