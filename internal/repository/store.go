package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the querying surface shared by *pgxpool.Pool and pgx.Tx, so the
// same repositories work inside and outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories over one connection scope. WithinTx yields
// a Store bound to a single transaction; either every write made through it
// persists or none do.
type Store interface {
	Users() UserRepository
	Tickets() TicketRepository
	Actions() TicketActionRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgxStore struct {
	db   DB
	pool *pgxpool.Pool
}

// NewStore builds a pool-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{db: pool, pool: pool}
}

func (s *pgxStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *pgxStore) Tickets() TicketRepository {
	return NewTicketRepository(s.db)
}

func (s *pgxStore) Actions() TicketActionRepository {
	return NewTicketActionRepository(s.db)
}

func (s *pgxStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already transaction-scoped
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(&pgxStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
