package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier covers the query methods shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transaction surface the repositories need. pgx.Tx satisfies it.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Pool matches the methods used from *pgxpool.Pool so the database can be
// faked in tests.
type Pool interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}

// PgxPool adapts *pgxpool.Pool to the Pool interface.
type PgxPool struct {
	*pgxpool.Pool
}

func NewPool(pool *pgxpool.Pool) PgxPool {
	return PgxPool{Pool: pool}
}

func (p PgxPool) Begin(ctx context.Context) (Tx, error) {
	return p.Pool.Begin(ctx)
}
