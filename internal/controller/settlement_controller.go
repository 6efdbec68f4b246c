package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/service"
)

// SettlementController exposes the manual-trigger endpoints for the
// settlement jobs. Routes sit behind the admin-only JWT middleware; a manual
// trigger runs the same pass as the cron schedule, guards included.
type SettlementController struct {
	settlementService service.SettlementService
}

func NewSettlementController(settlementService service.SettlementService) *SettlementController {
	return &SettlementController{
		settlementService: settlementService,
	}
}

func (c *SettlementController) RunInterest(ctx *gin.Context) {
	c.runManually(ctx, c.settlementService.RunInterestPaymentManually)
}

func (c *SettlementController) RunLoans(ctx *gin.Context) {
	c.runManually(ctx, c.settlementService.RunLoanChargesManually)
}

func (c *SettlementController) RunSalary(ctx *gin.Context) {
	c.runManually(ctx, c.settlementService.TestProfessorSalaryManually)
}

func (c *SettlementController) RunInactivity(ctx *gin.Context) {
	c.runManually(ctx, c.settlementService.RunInactivityFeeManually)
}

func (c *SettlementController) runManually(ctx *gin.Context, run func(context.Context) (*service.ManualRunResponse, error)) {
	response, err := run(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to run settlement job",
			Message: err.Error(),
		})
		return
	}

	if adminID, exists := ctx.Get("user_id"); exists {
		logrus.WithFields(logrus.Fields{
			"admin_id": adminID,
			"success":  response.Success,
			"message":  response.Message,
		}).Info("Manual settlement run triggered")
	}

	if !response.Success {
		ctx.JSON(http.StatusUnprocessableEntity, response)
		return
	}

	ctx.JSON(http.StatusOK, response)
}
