package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/core/ports"
	portssvc "github.com/finpost/posting_ledger/internal/core/ports/services"
	"github.com/finpost/posting_ledger/internal/middleware"
)

type accountService struct {
	repos ports.Repositories
}

// NewAccountService creates the account service over the plain repositories.
// Account reads and creation never join a posting unit of work.
func NewAccountService(repos ports.Repositories) portssvc.AccountService {
	return &accountService{repos: repos}
}

var _ portssvc.AccountService = (*accountService)(nil)

// CreateAccount registers a new account in the given currency and returns its
// assigned id. When no creation time is supplied the server clock is used.
func (s *accountService) CreateAccount(ctx context.Context, currencyCode, description string, creationTime *time.Time) (int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if currencyCode == "" {
		return 0, apperrors.NewInvalidRequest("currency code is required")
	}
	createdAt := time.Now().UTC()
	if creationTime != nil {
		createdAt = creationTime.UTC()
	}

	id, err := s.repos.Accounts.CreateAccount(ctx, domain.Account{
		CurrencyCode: currencyCode,
		Description:  description,
		CreationTime: createdAt,
	})
	if err != nil {
		logger.Error("Failed to create account", slog.String("error", err.Error()))
		return 0, fmt.Errorf("creating account: %w", err)
	}
	logger.Info("Account created", slog.Int64("account_id", id),
		slog.String("currency_code", currencyCode))
	return id, nil
}

// GetStatefulAccount returns the account together with its latest state.
func (s *accountService) GetStatefulAccount(ctx context.Context, id int64) (*domain.StatefulAccount, error) {
	accounts, err := s.repos.Accounts.FindStatefulByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	acc, ok := accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, apperrors.ErrNotFound)
	}
	return &acc, nil
}

// GetAccountBalance reports the net committed-balance movement of the account
// over the [fromTime, toTime) window.
func (s *accountService) GetAccountBalance(ctx context.Context, id int64, fromTime, toTime time.Time) (int64, error) {
	if !toTime.After(fromTime) {
		return 0, apperrors.NewInvalidRequest("toTime must be after fromTime")
	}
	balance, err := s.repos.Accounts.GetAccountBalance(ctx, id, fromTime, toTime)
	if err != nil {
		return 0, err
	}
	return balance.FinalAmount - balance.StartAmount, nil
}
