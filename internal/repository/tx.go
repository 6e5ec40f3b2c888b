package repository

import (
	"context"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx, so
// repository methods run the same against the pool or inside a
// transaction carried in the context.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FlightLocker serializes all seat mutations for one flight.
type FlightLocker interface {
	WithFlightLock(ctx context.Context, flightID int64, fn func(ctx context.Context) error) error
}

type txKey struct{}

// Store owns the connection pool and hands repositories their querier.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) querier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.db
}

// WithFlightLock opens a transaction, takes an exclusive row lock on
// the flight, and runs fn with the transaction carried in ctx. Every
// repository call inside fn joins the same transaction, so the whole
// logical operation commits or rolls back as one.
//
// The call is re-entrant: if ctx already carries a transaction the
// flight lock is held by it and fn runs inline. Nested calls are only
// ever made for the same flight.
func (s *Store) WithFlightLock(ctx context.Context, flightID int64, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM flights WHERE id=$1 FOR UPDATE`, flightID).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrFlightNotFound
		}
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ FlightLocker = (*Store)(nil)
