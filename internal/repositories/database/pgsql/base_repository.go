// Package pgsql implements the storage ports on PostgreSQL via pgx. All
// repository types are bound to a DBTX, so the same implementation serves
// pool-backed reads and transaction-backed units of work.
package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/ports"
)

// DBTX is the querying surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

// BaseRepository provides the shared database handle for all repositories.
type BaseRepository struct {
	DB DBTX
}

// NewRepositories builds the repository bundle over the given handle.
func NewRepositories(db DBTX) ports.Repositories {
	return ports.Repositories{
		Accounts: newPgxAccountRepository(db),
		Plans:    newPgxPlanRepository(db),
	}
}

// storageErr tags an infrastructure-level failure so callers can match it as
// ErrUnavailable while keeping the driver error in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, err, apperrors.ErrUnavailable)
}
