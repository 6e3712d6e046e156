package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// closeTimeout bounds the graceful termination message sent on Close.
const closeTimeout = 5 * time.Second

// PostgresConnector opens native pgx connections, one per session.
type PostgresConnector struct{}

// NewPostgresConnector creates a PostgreSQL connector.
func NewPostgresConnector() *PostgresConnector {
	return &PostgresConnector{}
}

func (c *PostgresConnector) Connect(ctx context.Context, dsn string) (Session, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgxSession{conn: conn}, nil
}

type pgxSession struct {
	conn *pgx.Conn
}

func (s *pgxSession) QueryFirst(ctx context.Context, query string) ([]any, error) {
	rows, err := s.conn.Query(ctx, query)
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

	return rows.Values()
}

func (s *pgxSession) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return s.conn.Close(ctx)
}
