package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/core/ports"
	portssvc "github.com/finpost/posting_ledger/internal/core/ports/services"
	"github.com/finpost/posting_ledger/internal/core/services"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountService
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	repos := ports.Repositories{
		Accounts: suite.mockAccountRepo,
		Plans:    new(MockPlanRepository),
	}
	suite.service = services.NewAccountService(repos)
}

func (suite *AccountServiceTestSuite) TestCreateAccount() {
	suite.mockAccountRepo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(acc domain.Account) bool {
		return acc.CurrencyCode == "RUB" && acc.Description == "merchant settlement" && !acc.CreationTime.IsZero()
	})).Return(int64(42), nil)

	id, err := suite.service.CreateAccount(context.Background(), "RUB", "merchant settlement", nil)

	suite.Require().NoError(err)
	suite.Equal(int64(42), id)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccountWithClientTime() {
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.mockAccountRepo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(acc domain.Account) bool {
		return acc.CreationTime.Equal(createdAt)
	})).Return(int64(7), nil)

	id, err := suite.service.CreateAccount(context.Background(), "RUB", "", &createdAt)

	suite.Require().NoError(err)
	suite.Equal(int64(7), id)
}

func (suite *AccountServiceTestSuite) TestCreateAccountRequiresCurrency() {
	_, err := suite.service.CreateAccount(context.Background(), "", "desc", nil)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetStatefulAccount() {
	stored := domain.StatefulAccount{
		Account: domain.Account{ID: 5, CurrencyCode: "RUB"},
		State:   domain.AccountState{OwnAmount: 300, MinAvailableDiff: -50},
	}
	suite.mockAccountRepo.On("FindStatefulByIDs", mock.Anything, []int64{5}).
		Return(map[int64]domain.StatefulAccount{5: stored}, nil)

	account, err := suite.service.GetStatefulAccount(context.Background(), 5)

	suite.Require().NoError(err)
	suite.Equal(stored, *account)
}

func (suite *AccountServiceTestSuite) TestGetStatefulAccountNotFound() {
	suite.mockAccountRepo.On("FindStatefulByIDs", mock.Anything, []int64{5}).
		Return(map[int64]domain.StatefulAccount{}, nil)

	_, err := suite.service.GetStatefulAccount(context.Background(), 5)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestGetAccountBalance() {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	suite.mockAccountRepo.On("GetAccountBalance", mock.Anything, int64(5), from, to).
		Return(&domain.AccountBalance{AccountID: 5, StartAmount: 100, FinalAmount: 250}, nil)

	movement, err := suite.service.GetAccountBalance(context.Background(), 5, from, to)

	suite.Require().NoError(err)
	suite.Equal(int64(150), movement)
}

func (suite *AccountServiceTestSuite) TestGetAccountBalanceInvalidWindow() {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.GetAccountBalance(context.Background(), 5, at, at)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "GetAccountBalance",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
