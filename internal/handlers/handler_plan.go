package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/finpost/posting_ledger/internal/core/ports/services"
	"github.com/finpost/posting_ledger/internal/dto"
	"github.com/finpost/posting_ledger/internal/middleware"
)

// planHandler handles HTTP requests for posting plan operations.
type planHandler struct {
	planService portssvc.PlanService
}

// newPlanHandler creates a new planHandler.
func newPlanHandler(ps portssvc.PlanService) *planHandler {
	return &planHandler{planService: ps}
}

// RegisterPlanRoutes registers routes related to posting plans.
func RegisterPlanRoutes(rg *gin.RouterGroup, planService portssvc.PlanService) {
	h := newPlanHandler(planService)

	plans := rg.Group("/plans")
	{
		plans.POST("/hold", h.hold)
		plans.POST("/commit", h.commit)
		plans.POST("/rollback", h.rollback)
		plans.GET("/:planID", h.getPlan)
	}
}

// hold godoc
// @Summary Hold a posting batch
// @Description Provisionally reserves one batch of postings under a plan. Re-holding an already held batch replays the prior result.
// @Tags plans
// @Accept  json
// @Produce  json
// @Param   request body dto.HoldRequest true "Plan id and the batch to hold"
// @Success 200 {object} dto.PlanOperationResponse
// @Failure 400 {object} map[string]any "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Plan already finalized"
// @Failure 503 {object} map[string]string "Storage unavailable, retry safely"
// @Router /plans/hold [post]
func (h *planHandler) hold(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Hold", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	affected, err := h.planService.Hold(c.Request.Context(), req.PlanID, dto.ToDomainBatch(req.Batch))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPlanOperationResponse(req.PlanID, affected))
}

// commit godoc
// @Summary Commit a posting plan
// @Description Finalizes all held batches of the plan, applying their net effect to committed balances. Repeating a commit replays the prior result.
// @Tags plans
// @Accept  json
// @Produce  json
// @Param   request body dto.PostingPlanRequest true "The full plan to commit"
// @Success 200 {object} dto.PlanOperationResponse
// @Failure 400 {object} map[string]any "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Plan not found"
// @Failure 409 {object} map[string]string "Plan already rolled back"
// @Failure 503 {object} map[string]string "Storage unavailable, retry safely"
// @Router /plans/commit [post]
func (h *planHandler) commit(c *gin.Context) {
	h.finalize(c, func(ctx *gin.Context, plan dto.PostingPlanRequest) (dto.PlanOperationResponse, error) {
		affected, err := h.planService.CommitPlan(ctx.Request.Context(), dto.ToDomainPlan(plan))
		if err != nil {
			return dto.PlanOperationResponse{}, err
		}
		return dto.ToPlanOperationResponse(plan.PlanID, affected), nil
	})
}

// rollback godoc
// @Summary Roll back a posting plan
// @Description Cancels all held batches of the plan, reverting their provisional effect. Repeating a rollback replays the prior result.
// @Tags plans
// @Accept  json
// @Produce  json
// @Param   request body dto.PostingPlanRequest true "The full plan to roll back"
// @Success 200 {object} dto.PlanOperationResponse
// @Failure 400 {object} map[string]any "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Plan not found"
// @Failure 409 {object} map[string]string "Plan already committed"
// @Failure 503 {object} map[string]string "Storage unavailable, retry safely"
// @Router /plans/rollback [post]
func (h *planHandler) rollback(c *gin.Context) {
	h.finalize(c, func(ctx *gin.Context, plan dto.PostingPlanRequest) (dto.PlanOperationResponse, error) {
		affected, err := h.planService.RollbackPlan(ctx.Request.Context(), dto.ToDomainPlan(plan))
		if err != nil {
			return dto.PlanOperationResponse{}, err
		}
		return dto.ToPlanOperationResponse(plan.PlanID, affected), nil
	})
}

func (h *planHandler) finalize(c *gin.Context, apply func(*gin.Context, dto.PostingPlanRequest) (dto.PlanOperationResponse, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for plan finalization", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	resp, err := apply(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getPlan godoc
// @Summary Get a posting plan
// @Description Returns the plan's held batches as reassembled from its posting logs.
// @Tags plans
// @Produce  json
// @Param   planID path string true "Plan ID"
// @Success 200 {object} dto.PlanResponse
// @Failure 404 {object} map[string]string "Plan not found"
// @Router /plans/{planID} [get]
func (h *planHandler) getPlan(c *gin.Context) {
	planID := c.Param("planID")

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}
