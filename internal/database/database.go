// Package database opens short-lived, exclusively owned sessions against a
// relational store for the probe. Nothing here pools connections across
// calls: every Connect dials, and Close tears everything down.
package database

import (
	"context"
	"dbprobe/internal/models"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRows is returned by QueryFirst when the query produced no rows.
	ErrNoRows = errors.New("query returned no rows")

	// ErrUnsupportedDriver is returned for driver names with no connector.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Connector opens sessions for a connection string.
// Implementations must be safe for concurrent use.
type Connector interface {
	Connect(ctx context.Context, dsn string) (Session, error)
}

// Session is one open connection. It is owned by a single caller and must
// be closed on every path.
//
// Errors from a session reach users verbatim, so implementations return
// driver errors without extra wrapping.
type Session interface {
	// QueryFirst runs query and returns the values of the first row.
	QueryFirst(ctx context.Context, query string) ([]any, error)

	// Close releases the connection and any handles behind it.
	Close() error
}

// New returns the connector for a named driver.
// Supported drivers:
//   - sqlserver: Microsoft SQL Server / Azure SQL (go-mssqldb)
//   - postgres: PostgreSQL through the native pgx protocol
//   - mysql: MySQL / MariaDB (go-sql-driver)
//   - sqlite: embedded SQLite (modernc, no cgo)
func New(driver string) (Connector, error) {
	switch driver {
	case models.DriverSQLServer:
		return NewSQLConnector("sqlserver"), nil
	case models.DriverPostgres:
		return NewPostgresConnector(), nil
	case models.DriverMySQL:
		return NewSQLConnector("mysql"), nil
	case models.DriverSQLite:
		return NewSQLConnector("sqlite"), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// NewConnector returns the connector for driver, or one that detects the
// driver from each connection string when driver is empty.
func NewConnector(driver string) (Connector, error) {
	if driver == "" {
		return detectingConnector{}, nil
	}
	return New(driver)
}

// SupportedDrivers lists every driver name accepted by New.
func SupportedDrivers() []string {
	return []string{models.DriverSQLServer, models.DriverPostgres, models.DriverMySQL, models.DriverSQLite}
}

// Detect guesses the driver from the shape of a connection string.
// ADO.NET-style "Server=...;Database=..." strings, and anything else
// unrecognised, map to sqlserver.
func Detect(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return models.DriverPostgres
	case strings.HasPrefix(lower, "sqlserver://"):
		return models.DriverSQLServer
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return models.DriverMySQL
	case strings.HasPrefix(lower, "file:"),
		lower == ":memory:",
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return models.DriverSQLite
	case strings.Contains(lower, "host=") && strings.Contains(lower, "dbname=") && !strings.Contains(lower, ";"):
		// libpq keyword/value form
		return models.DriverPostgres
	default:
		return models.DriverSQLServer
	}
}

type detectingConnector struct{}

func (detectingConnector) Connect(ctx context.Context, dsn string) (Session, error) {
	c, err := New(Detect(dsn))
	if err != nil {
		return nil, err
	}
	return c.Connect(ctx, dsn)
}
