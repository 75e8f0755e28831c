package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgUniqueViolation = "23505"

// Store owns the database handle. The account and role contracts have
// colliding method names, so each is exposed through its own view type:
// [Store.Accounts] and [Store.Roles].
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL through the pgx driver and wraps the
// connection in a Store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an existing database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Accounts returns the account persistence view.
func (s *Store) Accounts() *Accounts {
	return &Accounts{db: s.db}
}

// Roles returns the role persistence view.
func (s *Store) Roles() *Roles {
	return &Roles{db: s.db}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
