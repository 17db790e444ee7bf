package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/core/ledger"
	"github.com/finpost/posting_ledger/internal/core/ports"
	portssvc "github.com/finpost/posting_ledger/internal/core/ports/services"
	"github.com/finpost/posting_ledger/internal/core/validation"
	"github.com/finpost/posting_ledger/internal/middleware"
)

// planService is the posting plan state machine. Every mutating request runs
// inside one unit of work: conditional plan header transition, cross checks
// against the posting logs already on file, idempotent replay detection, and
// finally ledger application under exclusive account locks.
type planService struct {
	uow   ports.UnitOfWork
	repos ports.Repositories
}

// NewPlanService creates the plan state machine over the given unit of work
// runner and the plain (non-transactional) repositories used for reads.
func NewPlanService(uow ports.UnitOfWork, repos ports.Repositories) portssvc.PlanService {
	return &planService{uow: uow, repos: repos}
}

var _ portssvc.PlanService = (*planService)(nil)

// Hold reserves the provisional effect of one batch on the plan without
// touching committed balances. A plan in HOLD state accepts further batches
// with non-decreasing batch ids.
func (s *planService) Hold(ctx context.Context, planID string, batch domain.PostingBatch) (map[int64]domain.StatefulAccount, error) {
	plan := domain.PostingPlan{PlanID: planID, Batches: []domain.PostingBatch{batch}}
	return s.process(ctx, plan, domain.OperationHold)
}

// CommitPlan finalizes all held batches of the plan, moving committed
// balances by the net posting diffs.
func (s *planService) CommitPlan(ctx context.Context, plan domain.PostingPlan) (map[int64]domain.StatefulAccount, error) {
	return s.process(ctx, plan, domain.OperationCommit)
}

// RollbackPlan cancels all held batches of the plan, reverting their
// provisional effect without touching committed balances.
func (s *planService) RollbackPlan(ctx context.Context, plan domain.PostingPlan) (map[int64]domain.StatefulAccount, error) {
	return s.process(ctx, plan, domain.OperationRollback)
}

func (s *planService) process(ctx context.Context, plan domain.PostingPlan, op domain.PostingOperation) (map[int64]domain.StatefulAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Info("New posting operation request",
		slog.String("operation", string(op)), slog.String("plan_id", plan.PlanID))

	// Structural validation needs no storage and happens before the unit of
	// work even starts.
	if err := validation.ValidatePlanStructure(plan, op.IsFinal()); err != nil {
		return nil, err
	}
	if err := validation.ValidatePostings(plan); err != nil {
		return nil, err
	}

	var affected map[int64]domain.StatefulAccount
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		result, err := s.processInTx(ctx, repos, plan, op)
		if err != nil {
			return err
		}
		affected = result
		return nil
	})
	if err != nil {
		logger.Error("Posting operation processing error",
			slog.String("operation", string(op)), slog.String("plan_id", plan.PlanID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return affected, nil
}

func (s *planService) processInTx(ctx context.Context, repos ports.Repositories,
	plan domain.PostingPlan, op domain.PostingOperation,
) (map[int64]domain.StatefulAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	received := domain.PostingPlanLog{
		PlanID:        plan.PlanID,
		LastBatchID:   plan.MaxBatchID(),
		LastOperation: op,
		CreationTime:  now,
	}

	// Conditional header transition: the write only succeeds when the stored
	// last operation permits it, so concurrent requests on one plan id
	// serialize here and losers observe a stale before-image.
	var old, curr *domain.PostingPlanLog
	var err error
	if op.IsFinal() {
		old, curr, err = repos.Plans.FinalizePlan(ctx, received, op)
	} else {
		old, curr, err = repos.Plans.CreateOrAppendPlan(ctx, received)
	}
	if err != nil {
		return nil, err
	}

	prevOp := domain.OperationHold
	if old != nil {
		prevOp = old.LastOperation
	}
	if curr == nil {
		return nil, validation.PlanTransitionError(received, old, !op.IsFinal())
	}

	saved, err := repos.Plans.FindPostingLogs(ctx, plan.PlanID, prevOp)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateAgainstSaved(plan, saved, op.IsFinal()); err != nil {
		return nil, err
	}

	newBatches := make([]domain.PostingBatch, 0, len(plan.Batches))
	for _, batch := range plan.Batches {
		if _, ok := saved[batch.BatchID]; !ok {
			newBatches = append(newBatches, batch)
		}
	}

	if prevOp == op && len(newBatches) == 0 {
		// Pure replay of an already-applied request: reconstruct the prior
		// result as of this plan/batch boundary and write nothing.
		logger.Info("Duplicate request", slog.String("operation", string(op)),
			slog.String("plan_id", plan.PlanID))
		upTo := plan.MaxBatchID()
		if op.IsFinal() {
			upTo = domain.FinalOperationBatchID
		}
		return repos.Accounts.FindStatefulUpTo(ctx, plan.AccountIDs(), plan.PlanID, upTo)
	}

	// Exclusive access to every account the plan touches, acquired in one
	// call over the full set so lock ordering stays stable across requests.
	accounts, err := repos.Accounts.FindStatefulExclusive(ctx, plan.AccountIDs())
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateAccounts(newBatches, accounts); err != nil {
		return nil, err
	}

	newPostingLogs := make([]domain.PostingLog, 0)
	for _, batch := range plan.Batches {
		for _, posting := range batch.Postings {
			newPostingLogs = append(newPostingLogs, domain.PostingLog{
				PlanID:       plan.PlanID,
				BatchID:      batch.BatchID,
				Posting:      posting,
				Operation:    op,
				CreationTime: now,
			})
		}
	}
	logger.Debug("Saving posting logs", slog.String("plan_id", plan.PlanID),
		slog.Int("count", len(newPostingLogs)))
	if err := repos.Plans.AppendPostingLogs(ctx, newPostingLogs); err != nil {
		return nil, err
	}

	var accountLogs []domain.AccountLog
	var resultStates map[int64]domain.AccountState
	if op == domain.OperationHold {
		accountLogs, resultStates = ledger.Hold(plan.PlanID, plan.Batches[0].BatchID,
			newPostingLogs, flattenPostingLogs(saved), accounts, now)
	} else {
		accountLogs, resultStates = ledger.CommitOrRollback(op, plan.PlanID,
			newPostingLogs, accounts, now)
	}
	if err := repos.Accounts.AppendAccountLogs(ctx, accountLogs); err != nil {
		return nil, err
	}

	// Snapshot of every account touched across the whole plan: freshly
	// computed states where the request moved them, the pre-loaded snapshot
	// elsewhere.
	affected := make(map[int64]domain.StatefulAccount, len(accounts))
	for id, acc := range accounts {
		if state, ok := resultStates[id]; ok {
			acc.State = state
		}
		affected[id] = acc
	}
	return affected, nil
}

// GetPlan reassembles a plan's held batches from its posting logs, using
// shared (non-locking) reads.
func (s *planService) GetPlan(ctx context.Context, planID string) (*domain.PostingPlan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Info("New GetPlan request", slog.String("plan_id", planID))

	if _, err := s.repos.Plans.FindPlanLog(ctx, planID, false); err != nil {
		return nil, err
	}
	batchLogs, err := s.repos.Plans.FindPostingLogs(ctx, planID, domain.OperationHold)
	if err != nil {
		return nil, err
	}

	batches := make([]domain.PostingBatch, 0, len(batchLogs))
	for batchID, logs := range batchLogs {
		postings := make([]domain.Posting, len(logs))
		for i, log := range logs {
			postings[i] = log.Posting
		}
		batches = append(batches, domain.PostingBatch{BatchID: batchID, Postings: postings})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].BatchID < batches[j].BatchID })

	return &domain.PostingPlan{PlanID: planID, Batches: batches}, nil
}

func flattenPostingLogs(byBatch map[int64][]domain.PostingLog) []domain.PostingLog {
	flat := make([]domain.PostingLog, 0)
	for _, logs := range byBatch {
		flat = append(flat, logs...)
	}
	return flat
}
