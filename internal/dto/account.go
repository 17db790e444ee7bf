package dto

import (
	"time"

	"github.com/finpost/posting_ledger/internal/core/domain"
)

// CreateAccountRequest defines the data needed to register a new account.
type CreateAccountRequest struct {
	CurrencyCode string     `json:"currencyCode" binding:"required"`
	Description  string     `json:"description"`  // Optional
	CreationTime *time.Time `json:"creationTime"` // Optional, server clock when absent
}

// CreateAccountResponse carries the id assigned to a new account.
type CreateAccountResponse struct {
	AccountID int64 `json:"accountID"`
}

// AccountResponse defines the data returned for an account, including its
// derived balance view.
type AccountResponse struct {
	AccountID        int64     `json:"accountID"`
	CurrencyCode     string    `json:"currencyCode"`
	Description      string    `json:"description"`
	CreationTime     time.Time `json:"creationTime"`
	OwnAmount        int64     `json:"ownAmount"`
	MinAvailableDiff int64     `json:"minAvailableDiff"`
	MaxAvailableDiff int64     `json:"maxAvailableDiff"`
	MinAvailable     int64     `json:"minAvailable"`
	MaxAvailable     int64     `json:"maxAvailable"`
}

// ToAccountResponse converts a domain.StatefulAccount to AccountResponse DTO
func ToAccountResponse(acc domain.StatefulAccount) AccountResponse {
	return AccountResponse{
		AccountID:        acc.ID,
		CurrencyCode:     acc.CurrencyCode,
		Description:      acc.Description,
		CreationTime:     acc.CreationTime,
		OwnAmount:        acc.State.OwnAmount,
		MinAvailableDiff: acc.State.MinAvailableDiff,
		MaxAvailableDiff: acc.State.MaxAvailableDiff,
		MinAvailable:     acc.State.MinAvailable(),
		MaxAvailable:     acc.State.MaxAvailable(),
	}
}

// BalanceQueryParams defines query parameters for the balance window report.
// Times use RFC 3339.
type BalanceQueryParams struct {
	FromTime time.Time `form:"fromTime" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	ToTime   time.Time `form:"toTime" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// AccountBalanceResponse defines the data returned for a balance window query.
type AccountBalanceResponse struct {
	AccountID int64     `json:"accountID"`
	FromTime  time.Time `json:"fromTime"`
	ToTime    time.Time `json:"toTime"`
	Balance   int64     `json:"balance"`
}
