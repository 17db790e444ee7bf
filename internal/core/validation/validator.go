// Package validation holds the pure checks a posting plan request must pass
// before the ledger is allowed to touch account state. Checks never mutate
// anything and collect every violation they find instead of failing on the
// first one, so a caller sees all independent problems of a request at once.
package validation

import (
	"strings"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
)

const (
	msgSourceTargetEqual       = "source and target accounts cannot be the same"
	msgAmountNegative          = "amount cannot be negative"
	msgPlanNotFound            = "posting plan not found: %s"
	msgSavedPostingNotFound    = "saved posting not found in batch: %d"
	msgReceivedPostingNotFound = "received posting not found in batch: %d"
	msgSrcAccountNotFound      = "source account not found by id: %d in batch: %d"
	msgDstAccountNotFound      = "target account not found by id: %d in batch: %d"
	msgCurrencyCodeNotEqual    = "account (%d) currency code is not equal: expected: %s, actual: %s in batch: %d"
	msgPlanEmpty               = "plan (%s) has no batches inside"
	msgBatchEmpty              = "posting batch (%d) has no postings inside"
	msgBatchDuplicate          = "batch (%d) has duplicate in received list"
	msgBatchIDRangeViolation   = "batch in plan (%s) is not allowed to have int64 max or min value"
	msgBatchCountViolation     = "too many batches in posting plan (%s)"
	msgBatchIDViolation        = "batch has id %d lower than saved id: %d"
)

// postingErrors accumulates per-posting violations and renders them as one
// aggregate error.
type postingErrors struct {
	errs map[domain.Posting][]string
}

func newPostingErrors() *postingErrors {
	return &postingErrors{errs: make(map[domain.Posting][]string)}
}

func (c *postingErrors) add(posting domain.Posting, msg string) {
	c.errs[posting] = append(c.errs[posting], msg)
}

// err returns nil when no violation was recorded, otherwise an
// *apperrors.InvalidPostingParams with per-posting messages joined by "; ".
func (c *postingErrors) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	joined := make(map[domain.Posting]string, len(c.errs))
	for posting, msgs := range c.errs {
		joined[posting] = strings.Join(msgs, "; ")
	}
	return &apperrors.InvalidPostingParams{Errors: joined}
}
