package service

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/receipt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionService struct {
	txRepo TransactionStore
	logger *zap.Logger
}

func NewTransactionService(txRepo TransactionStore, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		txRepo: txRepo,
		logger: logger,
	}
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.TransactionResponse, error) {
	transactions, err := s.txRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	resp := make([]dto.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, toTransactionResponse(tx))
	}
	return resp, nil
}

func toTransactionResponse(tx *models.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          tx.ID.String(),
		Wallet:      tx.Wallet,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
		Date:        tx.Date.Format(receipt.DateLayout),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.ScanID != nil {
		resp.ScanID = tx.ScanID.String()
	}
	return resp
}
