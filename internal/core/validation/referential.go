package validation

import (
	"fmt"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
)

// samePosting reports whether a received posting is the exact same movement as
// a saved posting log: amount, accounts, currency and description all match.
func samePosting(posting domain.Posting, saved domain.PostingLog) bool {
	return posting.Amount == saved.Amount &&
		posting.FromAccountID == saved.FromAccountID &&
		posting.ToAccountID == saved.ToAccountID &&
		posting.CurrencyCode == saved.CurrencyCode &&
		posting.Description == saved.Description
}

func containsPosting(saved []domain.PostingLog, posting domain.Posting) bool {
	for _, log := range saved {
		if samePosting(posting, log) {
			return true
		}
	}
	return false
}

func containsSaved(postings []domain.Posting, saved domain.PostingLog) bool {
	for _, posting := range postings {
		if samePosting(posting, saved) {
			return true
		}
	}
	return false
}

// ValidateAgainstSaved cross-checks the received plan against the posting logs
// already on file for it. Batches must be appended in non-decreasing id order;
// for every batch id present on both sides the posting sets must match exactly
// in both directions; and a final operation must cover the entire saved set,
// batch for batch, with nothing extra.
func ValidateAgainstSaved(plan domain.PostingPlan, savedLogs map[int64][]domain.PostingLog, finalOp bool) error {
	received := make(map[int64][]domain.Posting, len(plan.Batches))
	for _, batch := range plan.Batches {
		received[batch.BatchID] = batch.Postings
	}

	commonIDs := make(map[int64]struct{})
	for batchID := range savedLogs {
		if _, ok := received[batchID]; ok {
			commonIDs[batchID] = struct{}{}
		}
	}

	collected := newPostingErrors()

	maxSavedID := domain.ReservedMinBatchID
	for batchID := range savedLogs {
		if batchID > maxSavedID {
			maxSavedID = batchID
		}
	}
	minNewReceivedID := domain.ReservedMaxBatchID
	for batchID := range received {
		if _, common := commonIDs[batchID]; !common && batchID < minNewReceivedID {
			minNewReceivedID = batchID
		}
	}
	if minNewReceivedID < maxSavedID {
		for _, posting := range received[minNewReceivedID] {
			collected.add(posting, fmt.Sprintf(msgBatchIDViolation, minNewReceivedID, maxSavedID))
		}
	}

	for batchID := range commonIDs {
		savedPostings := savedLogs[batchID]
		receivedPostings := received[batchID]

		for _, savedLog := range savedPostings {
			if !containsSaved(receivedPostings, savedLog) {
				collected.add(savedLog.Posting, fmt.Sprintf(msgSavedPostingNotFound, batchID))
			}
		}
		for _, posting := range receivedPostings {
			if !containsPosting(savedPostings, posting) {
				collected.add(posting, fmt.Sprintf(msgReceivedPostingNotFound, batchID))
			}
		}
	}

	if finalOp {
		// no partial commit or rollback of a subset of batches
		for batchID, savedPostings := range savedLogs {
			if _, ok := received[batchID]; ok {
				continue
			}
			for _, savedLog := range savedPostings {
				collected.add(savedLog.Posting, fmt.Sprintf(msgSavedPostingNotFound, batchID))
			}
		}
		for batchID, receivedPostings := range received {
			if _, ok := savedLogs[batchID]; ok {
				continue
			}
			for _, posting := range receivedPostings {
				collected.add(posting, fmt.Sprintf(msgReceivedPostingNotFound, batchID))
			}
		}
	}

	return collected.err()
}

// PlanTransitionError synthesizes the failure for a plan header write that the
// store rejected. failIfNoPlan marks a transition that is supposed to create
// the plan when absent: for such a transition an absent plan after the write
// is an unresolvable inconsistency, while for a finalizing transition it just
// means the plan was never held.
func PlanTransitionError(received domain.PostingPlanLog, old *domain.PostingPlanLog, failIfNoPlan bool) error {
	if old == nil {
		if failIfNoPlan {
			return fmt.Errorf("%w: failed to create or update plan %s",
				apperrors.ErrFatalInconsistency, received.PlanID)
		}
		return fmt.Errorf(msgPlanNotFound+": %w", received.PlanID, apperrors.ErrNotFound)
	}
	return &apperrors.PlanStateError{
		PlanID: received.PlanID,
		From:   old.LastOperation,
		To:     received.LastOperation,
	}
}
