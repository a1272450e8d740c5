package repository

import (
	"context"

	"fintrack/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "scan_id", "wallet", "type", "amount",
	"description", "category", "date", "created_at", "updated_at",
}

type TransactionRepository struct {
	db     DB
	logger *zap.Logger
}

func NewTransactionRepository(db DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func insertTransactionQuery(tx *models.Transaction) squirrel.InsertBuilder {
	return squirrel.Insert("transactions").
		Columns(transactionColumns...).
		Values(
			tx.ID, tx.UserID, tx.ScanID, tx.Wallet, tx.Type, tx.Amount,
			tx.Description, tx.Category, tx.Date, tx.CreatedAt, tx.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)
}

func selectTransactionByScanQuery(scanID uuid.UUID) squirrel.SelectBuilder {
	return squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"scan_id": scanID}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
}

func listTransactionsQuery(userID uuid.UUID, limit, offset int) squirrel.SelectBuilder {
	l, o := pageBounds(limit, offset)
	return squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC", "created_at DESC").
		Limit(l).
		Offset(o).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	sql, args, err := insertTransactionQuery(tx).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}

// GetByScanID returns the transaction created from a scan, or ErrNotFound.
func (r *TransactionRepository) GetByScanID(ctx context.Context, scanID uuid.UUID) (*models.Transaction, error) {
	sql, args, err := selectTransactionByScanQuery(scanID).ToSql()
	if err != nil {
		return nil, err
	}

	tx, err := scanTransaction(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return tx, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	sql, args, err := listTransactionsQuery(userID, limit, offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*models.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.ScanID, &tx.Wallet, &tx.Type, &tx.Amount,
		&tx.Description, &tx.Category, &tx.Date, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}
