package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/core/validation"
)

func posting(from, to, amount int64) domain.Posting {
	return domain.Posting{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        amount,
		CurrencyCode:  "RUB",
	}
}

func plan(planID string, batches ...domain.PostingBatch) domain.PostingPlan {
	return domain.PostingPlan{PlanID: planID, Batches: batches}
}

func batch(batchID int64, postings ...domain.Posting) domain.PostingBatch {
	return domain.PostingBatch{BatchID: batchID, Postings: postings}
}

func savedLogs(op domain.PostingOperation, batches ...domain.PostingBatch) map[int64][]domain.PostingLog {
	logs := make(map[int64][]domain.PostingLog, len(batches))
	for _, b := range batches {
		for _, p := range b.Postings {
			logs[b.BatchID] = append(logs[b.BatchID], domain.PostingLog{
				PlanID:    "plan-1",
				BatchID:   b.BatchID,
				Posting:   p,
				Operation: op,
			})
		}
	}
	return logs
}

func TestValidatePlanStructure(t *testing.T) {
	valid := plan("plan-1", batch(1, posting(1, 2, 100)))

	t.Run("valid hold", func(t *testing.T) {
		assert.NoError(t, validation.ValidatePlanStructure(valid, false))
	})

	t.Run("no batches", func(t *testing.T) {
		err := validation.ValidatePlanStructure(plan("plan-1"), false)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("hold with several batches", func(t *testing.T) {
		p := plan("plan-1", batch(1, posting(1, 2, 100)), batch(2, posting(1, 2, 50)))
		err := validation.ValidatePlanStructure(p, false)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		// the same plan is fine for a final operation
		assert.NoError(t, validation.ValidatePlanStructure(p, true))
	})

	t.Run("empty batch", func(t *testing.T) {
		err := validation.ValidatePlanStructure(plan("plan-1", batch(1)), false)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("duplicate batch ids", func(t *testing.T) {
		p := plan("plan-1", batch(7, posting(1, 2, 100)), batch(7, posting(1, 2, 50)))
		err := validation.ValidatePlanStructure(p, true)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("reserved batch ids", func(t *testing.T) {
		for _, id := range []int64{domain.ReservedMinBatchID, domain.ReservedMaxBatchID} {
			err := validation.ValidatePlanStructure(plan("plan-1", batch(id, posting(1, 2, 100))), false)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		}
	})
}

func TestValidatePostings(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validation.ValidatePostings(plan("plan-1", batch(1, posting(1, 2, 0)))))
	})

	t.Run("self transfer and negative amount reported together", func(t *testing.T) {
		bad := posting(3, 3, -5)
		err := validation.ValidatePostings(plan("plan-1", batch(1, bad)))

		var postingErrs *apperrors.InvalidPostingParams
		require.True(t, errors.As(err, &postingErrs))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		require.Contains(t, postingErrs.Errors, bad)
		assert.Contains(t, postingErrs.Errors[bad], "source and target")
		assert.Contains(t, postingErrs.Errors[bad], "negative")
	})
}

func TestValidateAccounts(t *testing.T) {
	accounts := map[int64]domain.StatefulAccount{
		1: {Account: domain.Account{ID: 1, CurrencyCode: "RUB"}},
		2: {Account: domain.Account{ID: 2, CurrencyCode: "RUB"}},
		3: {Account: domain.Account{ID: 3, CurrencyCode: "USD"}},
	}

	t.Run("valid", func(t *testing.T) {
		err := validation.ValidateAccounts([]domain.PostingBatch{batch(1, posting(1, 2, 100))}, accounts)
		assert.NoError(t, err)
	})

	t.Run("missing accounts reported per side", func(t *testing.T) {
		bad := posting(8, 9, 100)
		err := validation.ValidateAccounts([]domain.PostingBatch{batch(1, bad)}, accounts)

		var postingErrs *apperrors.InvalidPostingParams
		require.True(t, errors.As(err, &postingErrs))
		assert.Contains(t, postingErrs.Errors[bad], "source account not found")
		assert.Contains(t, postingErrs.Errors[bad], "target account not found")
	})

	t.Run("currency mismatch", func(t *testing.T) {
		bad := posting(1, 3, 100)
		err := validation.ValidateAccounts([]domain.PostingBatch{batch(1, bad)}, accounts)

		var postingErrs *apperrors.InvalidPostingParams
		require.True(t, errors.As(err, &postingErrs))
		assert.Contains(t, postingErrs.Errors[bad], "currency code is not equal")
	})
}

func TestValidateAgainstSaved(t *testing.T) {
	held := batch(1, posting(1, 2, 100))

	t.Run("new batch above saved ids", func(t *testing.T) {
		err := validation.ValidateAgainstSaved(
			plan("plan-1", batch(2, posting(1, 2, 50))),
			savedLogs(domain.OperationHold, held), false)
		assert.NoError(t, err)
	})

	t.Run("new batch below saved ids", func(t *testing.T) {
		err := validation.ValidateAgainstSaved(
			plan("plan-1", batch(0, posting(1, 2, 50))),
			savedLogs(domain.OperationHold, held), false)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("identical resubmission of a held batch", func(t *testing.T) {
		err := validation.ValidateAgainstSaved(
			plan("plan-1", held),
			savedLogs(domain.OperationHold, held), false)
		assert.NoError(t, err)
	})

	t.Run("same batch id with different postings", func(t *testing.T) {
		altered := batch(1, posting(1, 2, 999))
		err := validation.ValidateAgainstSaved(
			plan("plan-1", altered),
			savedLogs(domain.OperationHold, held), false)

		var postingErrs *apperrors.InvalidPostingParams
		require.True(t, errors.As(err, &postingErrs))
		assert.Contains(t, postingErrs.Errors[posting(1, 2, 100)], "saved posting not found")
		assert.Contains(t, postingErrs.Errors[posting(1, 2, 999)], "received posting not found")
	})

	t.Run("final operation must cover every held batch", func(t *testing.T) {
		saved := savedLogs(domain.OperationHold, held, batch(2, posting(1, 2, 50)))
		err := validation.ValidateAgainstSaved(plan("plan-1", held), saved, true)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("final operation with an unknown extra batch", func(t *testing.T) {
		err := validation.ValidateAgainstSaved(
			plan("plan-1", held, batch(2, posting(1, 2, 50))),
			savedLogs(domain.OperationHold, held), true)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("exact final coverage", func(t *testing.T) {
		other := batch(2, posting(2, 1, 30))
		err := validation.ValidateAgainstSaved(
			plan("plan-1", held, other),
			savedLogs(domain.OperationHold, held, other), true)
		assert.NoError(t, err)
	})
}

func TestPlanTransitionError(t *testing.T) {
	received := domain.PostingPlanLog{PlanID: "plan-1", LastOperation: domain.OperationCommit}

	t.Run("absent plan on finalize", func(t *testing.T) {
		err := validation.PlanTransitionError(received, nil, false)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("absent plan on hold is unresolvable", func(t *testing.T) {
		hold := domain.PostingPlanLog{PlanID: "plan-1", LastOperation: domain.OperationHold}
		err := validation.PlanTransitionError(hold, nil, true)
		assert.ErrorIs(t, err, apperrors.ErrFatalInconsistency)
	})

	t.Run("terminal state conflict", func(t *testing.T) {
		old := &domain.PostingPlanLog{PlanID: "plan-1", LastOperation: domain.OperationRollback}
		err := validation.PlanTransitionError(received, old, false)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		var stateErr *apperrors.PlanStateError
		require.True(t, errors.As(err, &stateErr))
		assert.Equal(t, domain.OperationRollback, stateErr.From)
		assert.Equal(t, domain.OperationCommit, stateErr.To)
	})
}
