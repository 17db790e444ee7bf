package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/dto"
	"github.com/finpost/posting_ledger/internal/middleware"
)

// respondError translates service errors to HTTP responses. Validation
// failures carry their structure through so callers can see exactly which
// posting or field was rejected.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var postingErrs *apperrors.InvalidPostingParams
	var invalidReq *apperrors.InvalidRequest
	switch {
	case errors.As(err, &postingErrs):
		logger.Warn("Posting validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "invalid posting params",
			"postingErrors": toPostingErrorResponses(postingErrs),
		})
	case errors.As(err, &invalidReq):
		logger.Warn("Request validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"reasons": invalidReq.Reasons,
		})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Plan state conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnavailable):
		logger.Error("Storage unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable, retry the identical request"})
	default:
		logger.Error("Request processing failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toPostingErrorResponses(e *apperrors.InvalidPostingParams) []dto.PostingErrorResponse {
	responses := make([]dto.PostingErrorResponse, 0, len(e.Errors))
	for posting, msg := range e.Errors {
		responses = append(responses, dto.PostingErrorResponse{
			Posting: dto.PostingRequest{
				FromAccountID: posting.FromAccountID,
				ToAccountID:   posting.ToAccountID,
				Amount:        posting.Amount,
				CurrencyCode:  posting.CurrencyCode,
				Description:   posting.Description,
			},
			Error: msg,
		})
	}
	sort.Slice(responses, func(i, j int) bool {
		a, b := responses[i].Posting, responses[j].Posting
		if a.FromAccountID != b.FromAccountID {
			return a.FromAccountID < b.FromAccountID
		}
		if a.ToAccountID != b.ToAccountID {
			return a.ToAccountID < b.ToAccountID
		}
		return a.Amount < b.Amount
	})
	return responses
}
