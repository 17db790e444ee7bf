package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/finpost/posting_ledger/internal/core/domain"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates that a requested plan transition is invalid given the
// plan's current state.
var ErrConflict = errors.New("conflicting plan state")

// ErrUnavailable indicates a transient storage failure or timeout. A retry of
// the identical request is safe and resolves idempotently.
var ErrUnavailable = errors.New("storage unavailable")

// ErrFatalInconsistency indicates a plan transition that neither succeeded nor
// left a resolvable prior state. It is not retryable and needs operator
// attention.
var ErrFatalInconsistency = errors.New("fatal storage inconsistency")

// InvalidRequest is a structurally malformed request: the caller must fix it
// before retrying. Reasons holds one human-readable message per violation.
type InvalidRequest struct {
	Reasons []string
}

func (e *InvalidRequest) Error() string {
	return "invalid request: " + strings.Join(e.Reasons, "; ")
}

func (e *InvalidRequest) Is(target error) bool {
	return target == ErrValidation
}

// NewInvalidRequest builds an InvalidRequest from formatted reasons.
func NewInvalidRequest(format string, args ...any) *InvalidRequest {
	return &InvalidRequest{Reasons: []string{fmt.Sprintf(format, args...)}}
}

// InvalidPostingParams aggregates per-posting validation failures. A request
// may fail for several independent reasons at once; Errors maps each offending
// posting to its joined failure messages.
type InvalidPostingParams struct {
	Errors map[domain.Posting]string
}

func (e *InvalidPostingParams) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for posting, msg := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("posting %d->%d amount %d: %s",
			posting.FromAccountID, posting.ToAccountID, posting.Amount, msg))
	}
	sort.Strings(msgs)
	return "invalid posting params: " + strings.Join(msgs, "; ")
}

func (e *InvalidPostingParams) Is(target error) bool {
	return target == ErrValidation
}

// PlanStateError reports an attempted transition that the plan's current
// terminal state forbids.
type PlanStateError struct {
	PlanID string
	From   domain.PostingOperation
	To     domain.PostingOperation
}

func (e *PlanStateError) Error() string {
	return fmt.Sprintf("unable to change plan state: %s from: %s to: %s", e.PlanID, e.From, e.To)
}

func (e *PlanStateError) Is(target error) bool {
	return target == ErrConflict
}
