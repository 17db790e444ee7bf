package services

import (
	"context"
	"time"

	"github.com/finpost/posting_ledger/internal/core/domain"
)

// PlanService is the posting plan state machine: it processes hold, commit and
// rollback requests and answers plan reads. The affected-accounts result of a
// mutating call maps every account touched across the entire plan to its
// latest state snapshot.
type PlanService interface {
	Hold(ctx context.Context, planID string, batch domain.PostingBatch) (map[int64]domain.StatefulAccount, error)
	CommitPlan(ctx context.Context, plan domain.PostingPlan) (map[int64]domain.StatefulAccount, error)
	RollbackPlan(ctx context.Context, plan domain.PostingPlan) (map[int64]domain.StatefulAccount, error)
	GetPlan(ctx context.Context, planID string) (*domain.PostingPlan, error)
}

// AccountService covers account creation and read paths outside the plan
// state machine.
type AccountService interface {
	CreateAccount(ctx context.Context, currencyCode, description string, creationTime *time.Time) (int64, error)
	GetStatefulAccount(ctx context.Context, id int64) (*domain.StatefulAccount, error)
	// GetAccountBalance returns the net committed-balance movement of the
	// account over the [fromTime, toTime) window.
	GetAccountBalance(ctx context.Context, id int64, fromTime, toTime time.Time) (int64, error)
}

// ServiceContainer bundles the service ports handed to the HTTP layer.
type ServiceContainer struct {
	Plans    PlanService
	Accounts AccountService
}
