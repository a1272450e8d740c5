package repository

import (
	"context"

	"fintrack/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var scanColumns = []string{
	"id", "user_id", "file_name", "file_size", "file_url", "raw_text",
	"description", "amount", "date", "category", "created_at",
}

type ReceiptScanRepository struct {
	db     DB
	logger *zap.Logger
}

func NewReceiptScanRepository(db DB, logger *zap.Logger) *ReceiptScanRepository {
	return &ReceiptScanRepository{
		db:     db,
		logger: logger,
	}
}

func insertScanQuery(scan *models.ReceiptScan) squirrel.InsertBuilder {
	return squirrel.Insert("receipt_scans").
		Columns(scanColumns...).
		Values(
			scan.ID, scan.UserID, scan.FileName, scan.FileSize, scan.FileURL, scan.RawText,
			scan.Description, scan.Amount, scan.Date, scan.Category, scan.CreatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)
}

func selectScanByIDQuery(id uuid.UUID) squirrel.SelectBuilder {
	return squirrel.Select(scanColumns...).
		From("receipt_scans").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
}

func listScansQuery(userID uuid.UUID, limit, offset int) squirrel.SelectBuilder {
	l, o := pageBounds(limit, offset)
	return squirrel.Select(scanColumns...).
		From("receipt_scans").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(l).
		Offset(o).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *ReceiptScanRepository) Create(ctx context.Context, scan *models.ReceiptScan) error {
	sql, args, err := insertScanQuery(scan).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}

func (r *ReceiptScanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReceiptScan, error) {
	sql, args, err := selectScanByIDQuery(id).ToSql()
	if err != nil {
		return nil, err
	}

	scan, err := scanReceiptScan(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return scan, nil
}

func (r *ReceiptScanRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ReceiptScan, error) {
	sql, args, err := listScansQuery(userID, limit, offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]*models.ReceiptScan, 0)
	for rows.Next() {
		scan, err := scanReceiptScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}

	return scans, rows.Err()
}

func scanReceiptScan(row pgx.Row) (*models.ReceiptScan, error) {
	var scan models.ReceiptScan
	if err := row.Scan(
		&scan.ID, &scan.UserID, &scan.FileName, &scan.FileSize, &scan.FileURL, &scan.RawText,
		&scan.Description, &scan.Amount, &scan.Date, &scan.Category, &scan.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &scan, nil
}
