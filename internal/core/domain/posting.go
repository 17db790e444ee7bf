package domain

import (
	"math"
	"time"
)

// Batch id sentinels. The extremes of the int64 range are reserved: clients
// may not submit them, and the maximum marks account log rows written by a
// final operation, where no single batch applies.
const (
	ReservedMinBatchID int64 = math.MinInt64
	ReservedMaxBatchID int64 = math.MaxInt64

	// FinalOperationBatchID tags commit/rollback account logs.
	FinalOperationBatchID = ReservedMaxBatchID
)

// Posting is one movement of a non-negative amount between two distinct
// accounts. All fields participate in equality; two postings are the same
// posting exactly when every field matches.
type Posting struct {
	FromAccountID int64  `json:"fromAccountID"`
	ToAccountID   int64  `json:"toAccountID"`
	Amount        int64  `json:"amount"`
	CurrencyCode  string `json:"currencyCode"`
	Description   string `json:"description"`
}

// PostingBatch is a client-named group of postings submitted together within
// one plan.
type PostingBatch struct {
	BatchID  int64     `json:"batchID"`
	Postings []Posting `json:"postings"`
}

// PostingPlan is the unit of transfer: one or more batches under a
// client-chosen plan id, progressing through HOLD to COMMIT or ROLLBACK.
type PostingPlan struct {
	PlanID  string         `json:"planID"`
	Batches []PostingBatch `json:"batches"`
}

// AccountIDs returns the distinct ids of every account referenced by the
// plan's postings, in unspecified order.
func (p PostingPlan) AccountIDs() []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, batch := range p.Batches {
		for _, posting := range batch.Postings {
			if _, ok := seen[posting.FromAccountID]; !ok {
				seen[posting.FromAccountID] = struct{}{}
				ids = append(ids, posting.FromAccountID)
			}
			if _, ok := seen[posting.ToAccountID]; !ok {
				seen[posting.ToAccountID] = struct{}{}
				ids = append(ids, posting.ToAccountID)
			}
		}
	}
	return ids
}

// MaxBatchID returns the highest batch id in the plan, or ReservedMinBatchID
// for a plan with no batches.
func (p PostingPlan) MaxBatchID() int64 {
	maxID := ReservedMinBatchID
	for _, batch := range p.Batches {
		if batch.BatchID > maxID {
			maxID = batch.BatchID
		}
	}
	return maxID
}

// PostingLog is the persisted record of one posting under one plan and
// operation. Rows are created once and never mutated.
type PostingLog struct {
	ID           int64
	PlanID       string
	BatchID      int64
	Posting
	Operation    PostingOperation
	CreationTime time.Time
}

// PostingPlanLog is the persisted plan header. LastOperation drives the plan
// state machine: HOLD is re-enterable, COMMIT and ROLLBACK are terminal.
// LastBatchID is the highest batch id the plan has seen.
type PostingPlanLog struct {
	PlanID        string
	LastBatchID   int64
	LastOperation PostingOperation
	CreationTime  time.Time
}
