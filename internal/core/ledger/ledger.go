// Package ledger turns posting logs into signed per-account amount diffs and
// computes the account log entries that move account state forward. It is pure
// computation: all storage access happens in the caller, and every referenced
// account is assumed to exist with its current state supplied.
package ledger

import (
	"time"

	"github.com/finpost/posting_ledger/internal/core/domain"
)

// ComputeDiffs folds a collection of posting logs into a net amount diff per
// account: each posting subtracts its amount from the source and adds it to
// the destination. Accounts not touched by any posting are absent from the
// result; touched accounts stay present even when their net diff is zero.
func ComputeDiffs(postingLogs []domain.PostingLog) map[int64]int64 {
	diffs := make(map[int64]int64)
	for _, pl := range postingLogs {
		diffs[pl.FromAccountID] -= pl.Amount
		diffs[pl.ToAccountID] += pl.Amount
	}
	return diffs
}

// MergeDiffs sums two diff maps per account.
func MergeDiffs(one, two map[int64]int64) map[int64]int64 {
	merged := make(map[int64]int64, len(one)+len(two))
	for accID, diff := range one {
		merged[accID] += diff
	}
	for accID, diff := range two {
		merged[accID] += diff
	}
	return merged
}

// Hold computes the account logs for holding one new batch on a plan.
//
// For each account touched by the new postings the provisional [min, max]
// envelope widens by the new diff in the direction of the net movement. When
// the batch flips the sign of the account's accumulated diff for this plan,
// the prior contribution is reversed and the remainder applied on the other
// side, so the envelope narrows back across zero instead of widening both
// bounds. A hold never touches the committed balance.
func Hold(planID string, batchID int64, newPostingLogs, savedPostingLogs []domain.PostingLog,
	accounts map[int64]domain.StatefulAccount, now time.Time,
) ([]domain.AccountLog, map[int64]domain.AccountState) {
	newDiffs := ComputeDiffs(newPostingLogs)
	savedDiffs := ComputeDiffs(savedPostingLogs)
	mergedDiffs := MergeDiffs(newDiffs, savedDiffs)

	accountLogs := make([]domain.AccountLog, 0, len(newDiffs))
	resultStates := make(map[int64]domain.AccountState, len(newDiffs))

	for accID, newDiff := range newDiffs {
		var negDiff, posDiff int64

		savedDiff, heldBefore := savedDiffs[accID]
		if !heldBefore {
			// first hold for this account under the plan
			if newDiff < 0 {
				negDiff = newDiff
			} else {
				posDiff = newDiff
			}
		} else {
			mergedDiff := mergedDiffs[accID]
			signChanged := (savedDiff < 0 && mergedDiff >= 0) || (savedDiff >= 0 && mergedDiff < 0)
			if signChanged {
				if savedDiff < 0 {
					negDiff = -savedDiff
					posDiff = mergedDiff
				} else {
					negDiff = mergedDiff
					posDiff = -savedDiff
				}
			} else {
				if mergedDiff < 0 {
					negDiff = newDiff
				} else {
					posDiff = newDiff
				}
			}
		}

		accountLog := newAccountLog(planID, batchID, accID, domain.OperationHold,
			accounts[accID].State, 0, posDiff, negDiff, newDiff, now)
		accountLogs = append(accountLogs, accountLog)
		resultStates[accID] = stateOf(accountLog)
	}
	return accountLogs, resultStates
}

// CommitOrRollback computes the account logs that finalize a plan. The
// provisional bound contribution introduced by the plan's holds is removed,
// and for COMMIT the committed balance moves by the net diff. Batch id is the
// final-operation sentinel: no single batch applies to a finalized plan.
func CommitOrRollback(op domain.PostingOperation, planID string, newPostingLogs []domain.PostingLog,
	accounts map[int64]domain.StatefulAccount, now time.Time,
) ([]domain.AccountLog, map[int64]domain.AccountState) {
	newDiffs := ComputeDiffs(newPostingLogs)

	accountLogs := make([]domain.AccountLog, 0, len(newDiffs))
	resultStates := make(map[int64]domain.AccountState, len(newDiffs))

	for accID, newDiff := range newDiffs {
		var negDiff, posDiff, ownDiff int64
		if newDiff < 0 {
			negDiff = -newDiff
		}
		if newDiff > 0 {
			posDiff = -newDiff
		}
		if op == domain.OperationCommit {
			ownDiff = newDiff
		}

		accountLog := newAccountLog(planID, domain.FinalOperationBatchID, accID, op,
			accounts[accID].State, ownDiff, posDiff, negDiff, newDiff, now)
		accountLogs = append(accountLogs, accountLog)
		resultStates[accID] = stateOf(accountLog)
	}
	return accountLogs, resultStates
}

func newAccountLog(planID string, batchID, accID int64, op domain.PostingOperation,
	state domain.AccountState, ownDiff, posDiff, negDiff, newDiff int64, now time.Time,
) domain.AccountLog {
	return domain.AccountLog{
		PlanID:         planID,
		BatchID:        batchID,
		AccountID:      accID,
		Operation:      op,
		OwnAccumulated: state.OwnAmount + ownDiff,
		MaxAccumulated: state.MaxAvailableDiff + posDiff,
		MinAccumulated: state.MinAvailableDiff + negDiff,
		OwnDiff:        ownDiff,
		MinDiff:        negDiff,
		MaxDiff:        posDiff,
		CreationTime:   now,
		Credit:         newDiff < 0,
		Merged:         false,
	}
}

func stateOf(accountLog domain.AccountLog) domain.AccountState {
	return domain.AccountState{
		OwnAmount:        accountLog.OwnAccumulated,
		MinAvailableDiff: accountLog.MinAccumulated,
		MaxAvailableDiff: accountLog.MaxAccumulated,
	}
}
