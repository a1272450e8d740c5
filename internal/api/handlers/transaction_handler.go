package handlers

import (
	"fintrack/internal/dto"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	txService TransactionService
	logger    *zap.Logger
}

func NewTransactionHandler(txService TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		txService: txService,
		logger:    logger,
	}
}

// ListTransactions godoc
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.TransactionListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	limit, offset := dto.NormalizePage(c.QueryInt("limit", dto.DefaultPageLimit), c.QueryInt("offset", 0))

	transactions, err := h.txService.List(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list transactions")
	}

	return c.JSON(dto.TransactionListResponse{Transactions: transactions, Limit: limit, Offset: offset})
}
