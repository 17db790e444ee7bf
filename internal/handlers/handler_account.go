package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/finpost/posting_ledger/internal/core/ports/services"
	"github.com/finpost/posting_ledger/internal/dto"
	"github.com/finpost/posting_ledger/internal/middleware"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountService
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountService) *accountHandler {
	return &accountHandler{accountService: as}
}

// RegisterAccountRoutes registers routes related to accounts.
func RegisterAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountService) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("/:accountID", h.getAccount)
		accounts.GET("/:accountID/balance", h.getAccountBalance)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Description Registers a new ledger account in the given currency and returns its assigned id
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.CreateAccountResponse
// @Failure 400 {object} map[string]any "Invalid input format or validation error"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	id, err := h.accountService.CreateAccount(c.Request.Context(), req.CurrencyCode, req.Description, req.CreationTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateAccountResponse{AccountID: id})
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Retrieves an account together with its current balance view
// @Tags accounts
// @Produce  json
// @Param   accountID path int true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Malformed account id"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{accountID} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetStatefulAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(*account))
}

// getAccountBalance godoc
// @Summary Get an account's balance movement over a time window
// @Description Returns the net committed-balance change of the account between fromTime (inclusive) and toTime (exclusive), RFC 3339
// @Tags accounts
// @Produce  json
// @Param   accountID path int true "Account ID"
// @Param   fromTime query string true "Window start, RFC 3339"
// @Param   toTime query string true "Window end, RFC 3339"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} map[string]any "Malformed id or window"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{accountID}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var params dto.BalanceQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind balance query params", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query params: " + err.Error()})
		return
	}

	balance, err := h.accountService.GetAccountBalance(c.Request.Context(), id, params.FromTime, params.ToTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID: id,
		FromTime:  params.FromTime,
		ToTime:    params.ToTime,
		Balance:   balance,
	})
}

func (h *accountHandler) accountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("accountID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id: " + c.Param("accountID")})
		return 0, false
	}
	return id, true
}
