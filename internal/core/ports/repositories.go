package ports

import (
	"context"
	"time"

	"github.com/finpost/posting_ledger/internal/core/domain"
)

// AccountRepository is the storage contract for accounts and their append-only
// state logs. Stateful reads derive the current AccountState from the most
// recent account log row, or the zero state when there is none.
type AccountRepository interface {
	// CreateAccount persists a new account and returns its assigned id.
	CreateAccount(ctx context.Context, prototype domain.Account) (int64, error)

	// FindAccountByID returns the bare account, or ErrNotFound.
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)

	// FindAccountsByIDs returns the bare accounts for the given ids; missing
	// ids are simply absent from the result.
	FindAccountsByIDs(ctx context.Context, ids []int64) ([]domain.Account, error)

	// FindStatefulByIDs returns accounts with their latest state, no locking.
	FindStatefulByIDs(ctx context.Context, ids []int64) (map[int64]domain.StatefulAccount, error)

	// FindStatefulExclusive additionally acquires a write-serializing row lock
	// on every returned account, held for the rest of the unit of work. Rows
	// are locked in ascending id order so concurrent requests over
	// overlapping account sets cannot deadlock.
	FindStatefulExclusive(ctx context.Context, ids []int64) (map[int64]domain.StatefulAccount, error)

	// FindStatefulUpTo returns account states as of the given plan/batch
	// boundary, used to reconstruct the response of a replayed request.
	FindStatefulUpTo(ctx context.Context, ids []int64, planID string, batchID int64) (map[int64]domain.StatefulAccount, error)

	// AppendAccountLogs inserts the given logs, all or nothing.
	AppendAccountLogs(ctx context.Context, logs []domain.AccountLog) error

	// GetAccountBalance reads the committed balance of an account at the edges
	// of the [fromTime, toTime) window, or ErrNotFound for an unknown account.
	GetAccountBalance(ctx context.Context, id int64, fromTime, toTime time.Time) (*domain.AccountBalance, error)
}

// PlanRepository is the storage contract for plan headers and posting logs.
type PlanRepository interface {
	// CreateOrAppendPlan creates the plan header in HOLD state or, when the
	// stored header is still overridable (last operation HOLD), advances its
	// last batch id. It returns the header before and after the write; curr is
	// nil when the stored state forbids the transition. The write is
	// conditional on the stored last operation, performed under the header's
	// row lock, so concurrent requests against one plan id serialize here.
	CreateOrAppendPlan(ctx context.Context, planLog domain.PostingPlanLog) (old, curr *domain.PostingPlanLog, err error)

	// FinalizePlan conditionally moves the header to the given final
	// operation. The write succeeds when the stored operation is HOLD or
	// already the same final operation (idempotent replay); otherwise curr is
	// nil. old is nil when no such plan exists.
	FinalizePlan(ctx context.Context, planLog domain.PostingPlanLog, op domain.PostingOperation) (old, curr *domain.PostingPlanLog, err error)

	// FindPlanLog returns the plan header, locked for update when exclusive,
	// or ErrNotFound.
	FindPlanLog(ctx context.Context, planID string, exclusive bool) (*domain.PostingPlanLog, error)

	// FindPostingLogs returns the plan's posting logs recorded under the given
	// operation, grouped by batch id.
	FindPostingLogs(ctx context.Context, planID string, op domain.PostingOperation) (map[int64][]domain.PostingLog, error)

	// AppendPostingLogs inserts the given logs, all or nothing. No duplication
	// checks happen here; the referred data is expected to be consistent.
	AppendPostingLogs(ctx context.Context, logs []domain.PostingLog) error
}

// Repositories bundles the storage contracts handed to a unit of work.
type Repositories struct {
	Accounts AccountRepository
	Plans    PlanRepository
}

// UnitOfWork runs a function inside one atomic, isolated, timeout-bounded
// storage transaction. The function's repositories are bound to that
// transaction; any error aborts it with no partial writes. An in-flight unit
// of work is detached from caller cancellation: it runs to commit or rollback
// even when the caller goes away, because a partially applied posting
// operation is never acceptable.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
