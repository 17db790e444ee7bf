package dto

import (
	"sort"

	"github.com/finpost/posting_ledger/internal/core/domain"
)

// PostingRequest is one posting inside a batch. Amounts are integer minor
// currency units; negative amounts are rejected by domain validation with a
// structured per-posting error, so no binding constraint applies here.
type PostingRequest struct {
	FromAccountID int64  `json:"fromAccountID" binding:"required"`
	ToAccountID   int64  `json:"toAccountID" binding:"required"`
	Amount        int64  `json:"amount"`
	CurrencyCode  string `json:"currencyCode" binding:"required"`
	Description   string `json:"description"`
}

// PostingBatchRequest is a client-named batch of postings.
type PostingBatchRequest struct {
	BatchID  int64            `json:"batchID"`
	Postings []PostingRequest `json:"postings" binding:"required"`
}

// HoldRequest submits one batch to hold under a plan.
type HoldRequest struct {
	PlanID string              `json:"planID" binding:"required"`
	Batch  PostingBatchRequest `json:"batch" binding:"required"`
}

// PostingPlanRequest submits a whole plan, used by commit and rollback.
type PostingPlanRequest struct {
	PlanID  string                `json:"planID" binding:"required"`
	Batches []PostingBatchRequest `json:"batches" binding:"required"`
}

// ToDomainBatch converts a PostingBatchRequest to the domain model.
func ToDomainBatch(req PostingBatchRequest) domain.PostingBatch {
	postings := make([]domain.Posting, len(req.Postings))
	for i, p := range req.Postings {
		postings[i] = domain.Posting{
			FromAccountID: p.FromAccountID,
			ToAccountID:   p.ToAccountID,
			Amount:        p.Amount,
			CurrencyCode:  p.CurrencyCode,
			Description:   p.Description,
		}
	}
	return domain.PostingBatch{BatchID: req.BatchID, Postings: postings}
}

// ToDomainPlan converts a PostingPlanRequest to the domain model.
func ToDomainPlan(req PostingPlanRequest) domain.PostingPlan {
	batches := make([]domain.PostingBatch, len(req.Batches))
	for i, b := range req.Batches {
		batches[i] = ToDomainBatch(b)
	}
	return domain.PostingPlan{PlanID: req.PlanID, Batches: batches}
}

// PlanOperationResponse is the result of a hold, commit or rollback: the plan
// id plus the latest state of every account the plan touches, sorted by id.
type PlanOperationResponse struct {
	PlanID           string            `json:"planID"`
	AffectedAccounts []AccountResponse `json:"affectedAccounts"`
}

// ToPlanOperationResponse converts an affected-accounts map to the response
// DTO with deterministic ordering.
func ToPlanOperationResponse(planID string, affected map[int64]domain.StatefulAccount) PlanOperationResponse {
	accounts := make([]AccountResponse, 0, len(affected))
	for _, acc := range affected {
		accounts = append(accounts, ToAccountResponse(acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountID < accounts[j].AccountID })
	return PlanOperationResponse{PlanID: planID, AffectedAccounts: accounts}
}

// PostingBatchResponse mirrors PostingBatchRequest for reads.
type PostingBatchResponse struct {
	BatchID  int64            `json:"batchID"`
	Postings []PostingRequest `json:"postings"`
}

// PlanResponse is the read view of a plan's held batches.
type PlanResponse struct {
	PlanID  string                 `json:"planID"`
	Batches []PostingBatchResponse `json:"batches"`
}

// ToPlanResponse converts a domain.PostingPlan to PlanResponse DTO
func ToPlanResponse(plan *domain.PostingPlan) PlanResponse {
	batches := make([]PostingBatchResponse, len(plan.Batches))
	for i, b := range plan.Batches {
		postings := make([]PostingRequest, len(b.Postings))
		for j, p := range b.Postings {
			postings[j] = PostingRequest{
				FromAccountID: p.FromAccountID,
				ToAccountID:   p.ToAccountID,
				Amount:        p.Amount,
				CurrencyCode:  p.CurrencyCode,
				Description:   p.Description,
			}
		}
		batches[i] = PostingBatchResponse{BatchID: b.BatchID, Postings: postings}
	}
	return PlanResponse{PlanID: plan.PlanID, Batches: batches}
}

// PostingErrorResponse pairs one rejected posting with its failure reasons.
type PostingErrorResponse struct {
	Posting PostingRequest `json:"posting"`
	Error   string         `json:"error"`
}
