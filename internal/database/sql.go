package database

import (
	"context"
	"database/sql"
	"dbprobe/internal/models"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// SQLConnector opens sessions through a database/sql driver.
type SQLConnector struct {
	driverName string
}

// NewSQLConnector creates a connector for a registered database/sql driver name.
func NewSQLConnector(driverName string) *SQLConnector {
	return &SQLConnector{driverName: driverName}
}

// Connect opens a private *sql.DB capped at one connection and pins that
// connection, so the session owns exactly one physical connection.
func (c *SQLConnector) Connect(ctx context.Context, dsn string) (Session, error) {
	if c.driverName == models.DriverSQLite {
		if err := checkSQLiteFile(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(c.driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}

	return &sqlSession{db: db, conn: conn}, nil
}

type sqlSession struct {
	db   *sql.DB
	conn *sql.Conn
}

func (s *sqlSession) QueryFirst(ctx context.Context, query string) ([]any, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	return values, nil
}

func (s *sqlSession) Close() error {
	return errors.Join(s.conn.Close(), s.db.Close())
}

// checkSQLiteFile fails for a database file that does not exist, which the
// driver would otherwise create empty. In-memory databases and URIs that
// ask for creation with mode=rwc are let through.
func checkSQLiteFile(dsn string) error {
	path, query, _ := strings.Cut(strings.TrimSpace(dsn), "?")
	if rest, ok := strings.CutPrefix(path, "file:"); ok {
		path = rest
		if strings.HasPrefix(path, "//") {
			path = strings.TrimPrefix(path, "//localhost")
			path = strings.TrimPrefix(path, "//")
		}
	}

	for _, opt := range strings.Split(query, "&") {
		if opt == "mode=memory" || opt == "mode=rwc" {
			return nil
		}
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sqlite database %s: %w", path, err)
	}
	return nil
}
