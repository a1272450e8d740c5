package models

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptScan is one uploaded receipt together with the OCR text and the
// fields extracted from it.
type ReceiptScan struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	FileName    string    `db:"file_name"`
	FileSize    int64     `db:"file_size"`
	FileURL     string    `db:"file_url"`
	RawText     string    `db:"raw_text"`
	Description string    `db:"description"`
	Amount      *float64  `db:"amount"`
	Date        time.Time `db:"date"`
	Category    string    `db:"category"`
	CreatedAt   time.Time `db:"created_at"`
}
