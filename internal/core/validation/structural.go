package validation

import (
	"fmt"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
)

// ValidatePlanStructure checks the shape of a received plan before any
// storage access: a plan carries at least one batch, a non-final operation
// carries exactly one, every batch carries at least one posting, batch ids are
// unique within the request and stay clear of the reserved sentinels.
func ValidatePlanStructure(plan domain.PostingPlan, finalOp bool) error {
	if len(plan.Batches) < 1 {
		return apperrors.NewInvalidRequest(msgPlanEmpty, plan.PlanID)
	}
	if !finalOp && len(plan.Batches) != 1 {
		return apperrors.NewInvalidRequest(msgBatchCountViolation, plan.PlanID)
	}
	batchIDs := make(map[int64]struct{}, len(plan.Batches))
	for _, batch := range plan.Batches {
		if len(batch.Postings) < 1 {
			return apperrors.NewInvalidRequest(msgBatchEmpty, batch.BatchID)
		}
		if _, dup := batchIDs[batch.BatchID]; dup {
			return apperrors.NewInvalidRequest(msgBatchDuplicate, batch.BatchID)
		}
		batchIDs[batch.BatchID] = struct{}{}
	}
	if _, ok := batchIDs[domain.ReservedMinBatchID]; ok {
		return apperrors.NewInvalidRequest(msgBatchIDRangeViolation, plan.PlanID)
	}
	if _, ok := batchIDs[domain.ReservedMaxBatchID]; ok {
		return apperrors.NewInvalidRequest(msgBatchIDRangeViolation, plan.PlanID)
	}
	return nil
}

// ValidatePostings checks every posting of the plan in isolation: source and
// target must differ and the amount must be non-negative. Both violations on
// the same posting are reported together.
func ValidatePostings(plan domain.PostingPlan) error {
	collected := newPostingErrors()
	for _, batch := range plan.Batches {
		for _, posting := range batch.Postings {
			if posting.FromAccountID == posting.ToAccountID {
				collected.add(posting, msgSourceTargetEqual)
			}
			if posting.Amount < 0 {
				collected.add(posting, msgAmountNegative)
			}
		}
	}
	return collected.err()
}

// ValidateAccounts checks that every posting of the new (not yet saved)
// batches references existing accounts whose currency matches the posting's.
// Source and target problems are reported independently, so one posting may
// carry up to two messages.
func ValidateAccounts(newBatches []domain.PostingBatch, accounts map[int64]domain.StatefulAccount) error {
	collected := newPostingErrors()
	for _, batch := range newBatches {
		for _, posting := range batch.Postings {
			if from, ok := accounts[posting.FromAccountID]; !ok {
				collected.add(posting, fmt.Sprintf(msgSrcAccountNotFound, posting.FromAccountID, batch.BatchID))
			} else if from.CurrencyCode != posting.CurrencyCode {
				collected.add(posting, fmt.Sprintf(msgCurrencyCodeNotEqual,
					from.ID, from.CurrencyCode, posting.CurrencyCode, batch.BatchID))
			}

			if to, ok := accounts[posting.ToAccountID]; !ok {
				collected.add(posting, fmt.Sprintf(msgDstAccountNotFound, posting.ToAccountID, batch.BatchID))
			} else if to.CurrencyCode != posting.CurrencyCode {
				collected.add(posting, fmt.Sprintf(msgCurrencyCodeNotEqual,
					to.ID, to.CurrencyCode, posting.CurrencyCode, batch.BatchID))
			}
		}
	}
	return collected.err()
}
