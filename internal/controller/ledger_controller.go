package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"valcoin-api/internal/repository"
	"valcoin-api/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LedgerController serves the read side of the ledger: balances and
// transaction statements.
type LedgerController struct {
	ledgerService service.LedgerService
}

func NewLedgerController(ledgerService service.LedgerService) *LedgerController {
	return &LedgerController{
		ledgerService: ledgerService,
	}
}

func (c *LedgerController) GetBalance(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	response, err := c.ledgerService.GetBalance(ctx.Request.Context(), &service.GetBalanceRequest{
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "User not found",
				Message: response.ErrorMessage,
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to load balance",
			Message: response.ErrorMessage,
		})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

func (c *LedgerController) GetTransactions(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	response, err := c.ledgerService.GetTransactions(ctx.Request.Context(), &service.GetTransactionsRequest{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list transactions",
			Message: response.ErrorMessage,
		})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

func parseUserID(ctx *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(ctx.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid user ID",
			Message: "User ID must be a positive integer",
		})
		return 0, false
	}
	return userID, true
}
