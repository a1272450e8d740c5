package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	ScanID      *uuid.UUID      `db:"scan_id"`
	Wallet      string          `db:"wallet"`
	Type        TransactionType `db:"type"`
	Amount      float64         `db:"amount"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Date        time.Time       `db:"date"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
