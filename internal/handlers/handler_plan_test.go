package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/dto"
	"github.com/finpost/posting_ledger/internal/handlers"
)

// --- Mock PlanService ---
type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) Hold(ctx context.Context, planID string, batch domain.PostingBatch) (map[int64]domain.StatefulAccount, error) {
	args := m.Called(ctx, planID, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]domain.StatefulAccount), args.Error(1)
}

func (m *MockPlanService) CommitPlan(ctx context.Context, plan domain.PostingPlan) (map[int64]domain.StatefulAccount, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]domain.StatefulAccount), args.Error(1)
}

func (m *MockPlanService) RollbackPlan(ctx context.Context, plan domain.PostingPlan) (map[int64]domain.StatefulAccount, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]domain.StatefulAccount), args.Error(1)
}

func (m *MockPlanService) GetPlan(ctx context.Context, planID string) (*domain.PostingPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostingPlan), args.Error(1)
}

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, currencyCode, description string, creationTime *time.Time) (int64, error) {
	args := m.Called(ctx, currencyCode, description, creationTime)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountService) GetStatefulAccount(ctx context.Context, id int64) (*domain.StatefulAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatefulAccount), args.Error(1)
}

func (m *MockAccountService) GetAccountBalance(ctx context.Context, id int64, fromTime, toTime time.Time) (int64, error) {
	args := m.Called(ctx, id, fromTime, toTime)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Suite ---
type PlanHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockPlanService    *MockPlanService
	mockAccountService *MockAccountService
}

func (suite *PlanHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.mockPlanService = new(MockPlanService)
	suite.mockAccountService = new(MockAccountService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterPlanRoutes(v1, suite.mockPlanService)
	handlers.RegisterAccountRoutes(v1, suite.mockAccountService)
}

func (suite *PlanHandlerTestSuite) postJSON(path string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func holdRequest() dto.HoldRequest {
	return dto.HoldRequest{
		PlanID: "plan-1",
		Batch: dto.PostingBatchRequest{
			BatchID: 1,
			Postings: []dto.PostingRequest{
				{FromAccountID: 1, ToAccountID: 2, Amount: 100, CurrencyCode: "RUB"},
			},
		},
	}
}

func (suite *PlanHandlerTestSuite) TestHoldSuccess() {
	affected := map[int64]domain.StatefulAccount{
		1: {
			Account: domain.Account{ID: 1, CurrencyCode: "RUB"},
			State:   domain.AccountState{MinAvailableDiff: -100},
		},
		2: {
			Account: domain.Account{ID: 2, CurrencyCode: "RUB"},
			State:   domain.AccountState{MaxAvailableDiff: 100},
		},
	}
	suite.mockPlanService.On("Hold", mock.Anything, "plan-1", mock.MatchedBy(func(batch domain.PostingBatch) bool {
		return batch.BatchID == 1 && len(batch.Postings) == 1
	})).Return(affected, nil)

	w := suite.postJSON("/api/v1/plans/hold", holdRequest())

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.PlanOperationResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("plan-1", resp.PlanID)
	suite.Require().Len(resp.AffectedAccounts, 2)
	suite.Equal(int64(1), resp.AffectedAccounts[0].AccountID)
	suite.Equal(int64(-100), resp.AffectedAccounts[0].MinAvailable)
	suite.Equal(int64(2), resp.AffectedAccounts[1].AccountID)
	suite.Equal(int64(100), resp.AffectedAccounts[1].MaxAvailable)
}

func (suite *PlanHandlerTestSuite) TestHoldMissingPlanID() {
	req := holdRequest()
	req.PlanID = ""

	w := suite.postJSON("/api/v1/plans/hold", req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPlanService.AssertNotCalled(suite.T(), "Hold", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PlanHandlerTestSuite) TestHoldPostingValidationPayload() {
	bad := domain.Posting{FromAccountID: 1, ToAccountID: 2, Amount: 100, CurrencyCode: "RUB"}
	suite.mockPlanService.On("Hold", mock.Anything, "plan-1", mock.Anything).
		Return(nil, &apperrors.InvalidPostingParams{Errors: map[domain.Posting]string{
			bad: "source account not found by id: 1 in batch: 1",
		}})

	w := suite.postJSON("/api/v1/plans/hold", holdRequest())

	suite.Equal(http.StatusBadRequest, w.Code)
	var resp struct {
		Error         string                     `json:"error"`
		PostingErrors []dto.PostingErrorResponse `json:"postingErrors"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.PostingErrors, 1)
	suite.Equal(int64(1), resp.PostingErrors[0].Posting.FromAccountID)
	suite.Contains(resp.PostingErrors[0].Error, "source account not found")
}

func (suite *PlanHandlerTestSuite) TestCommitConflict() {
	suite.mockPlanService.On("CommitPlan", mock.Anything, mock.Anything).
		Return(nil, &apperrors.PlanStateError{
			PlanID: "plan-1",
			From:   domain.OperationRollback,
			To:     domain.OperationCommit,
		})

	w := suite.postJSON("/api/v1/plans/commit", dto.PostingPlanRequest{
		PlanID: "plan-1",
		Batches: []dto.PostingBatchRequest{{
			BatchID:  1,
			Postings: []dto.PostingRequest{{FromAccountID: 1, ToAccountID: 2, Amount: 100, CurrencyCode: "RUB"}},
		}},
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *PlanHandlerTestSuite) TestRollbackUnavailable() {
	suite.mockPlanService.On("RollbackPlan", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrUnavailable)

	w := suite.postJSON("/api/v1/plans/rollback", dto.PostingPlanRequest{
		PlanID: "plan-1",
		Batches: []dto.PostingBatchRequest{{
			BatchID:  1,
			Postings: []dto.PostingRequest{{FromAccountID: 1, ToAccountID: 2, Amount: 100, CurrencyCode: "RUB"}},
		}},
	})

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *PlanHandlerTestSuite) TestGetPlanNotFound() {
	suite.mockPlanService.On("GetPlan", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/missing", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *PlanHandlerTestSuite) TestCreateAccount() {
	suite.mockAccountService.On("CreateAccount", mock.Anything, "RUB", "settlement", (*time.Time)(nil)).
		Return(int64(42), nil)

	w := suite.postJSON("/api/v1/accounts", dto.CreateAccountRequest{
		CurrencyCode: "RUB",
		Description:  "settlement",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.CreateAccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(42), resp.AccountID)
}

func (suite *PlanHandlerTestSuite) TestGetAccountBalance() {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	suite.mockAccountService.On("GetAccountBalance", mock.Anything, int64(5), from, to).
		Return(int64(150), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/accounts/5/balance?fromTime=2024-03-01T00:00:00Z&toTime=2024-04-01T00:00:00Z", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountBalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(150), resp.Balance)
}

func (suite *PlanHandlerTestSuite) TestGetAccountMalformedID() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/notanumber", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "GetStatefulAccount", mock.Anything, mock.Anything)
}

func TestPlanHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PlanHandlerTestSuite))
}
