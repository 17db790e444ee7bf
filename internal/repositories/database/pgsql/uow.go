package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/posting_ledger/internal/core/ports"
)

// TxRunner runs units of work as single database transactions with
// transaction-bound repositories.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner creates a unit of work runner over the pool. A non-zero timeout
// bounds each unit of work.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) ports.UnitOfWork {
	return &TxRunner{pool: pool, timeout: timeout}
}

var _ ports.UnitOfWork = (*TxRunner)(nil)

// Do executes fn inside one transaction. The transaction is detached from
// caller cancellation and runs to commit or rollback under its own timeout: a
// posting operation that has started must either fully apply or fully abort,
// never stop half-way because a client hung up.
func (r *TxRunner) Do(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	// No-op after a successful commit.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}
