package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/receipt"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TextExtractor interface {
	Provider() string
	ExtractText(ctx context.Context, filePath string) (string, error)
}

type ScanStore interface {
	Create(ctx context.Context, scan *models.ReceiptScan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReceiptScan, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ReceiptScan, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByScanID(ctx context.Context, scanID uuid.UUID) (*models.Transaction, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
}

// ScanObserver receives scan outcomes, typically for metrics.
type ScanObserver interface {
	RecordScan(provider string, err error, duration time.Duration)
	RecordExtraction(category string, amountFound bool)
	RecordOCRFailure(provider, reason string)
}

type nopObserver struct{}

func (nopObserver) RecordScan(string, error, time.Duration) {}
func (nopObserver) RecordExtraction(string, bool)          {}
func (nopObserver) RecordOCRFailure(string, string)        {}

type ReceiptService struct {
	scanRepo  ScanStore
	txRepo    TransactionStore
	ocr       TextExtractor
	extractor *receipt.Extractor
	observer  ScanObserver
	uploadDir string
	logger    *zap.Logger
}

func NewReceiptService(
	scanRepo ScanStore,
	txRepo TransactionStore,
	ocr TextExtractor,
	extractor *receipt.Extractor,
	observer ScanObserver,
	uploadDir string,
	logger *zap.Logger,
) *ReceiptService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &ReceiptService{
		scanRepo:  scanRepo,
		txRepo:    txRepo,
		ocr:       ocr,
		extractor: extractor,
		observer:  observer,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Scan stores the uploaded receipt, runs OCR on it, extracts the purchase
// fields and records the result.
func (s *ReceiptService) Scan(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string) (*dto.ScanResponse, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !supportedExtension(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	scanID := uuid.New()
	storedName := scanID.String() + ext
	filePath := filepath.Join(s.uploadDir, storedName)

	fileSize, err := saveUpload(filePath, file)
	if err != nil {
		return nil, err
	}
	if fileSize == 0 {
		os.Remove(filePath)
		return nil, ErrEmptyUpload
	}

	start := time.Now()
	text, err := s.ocr.ExtractText(ctx, filePath)
	s.observer.RecordScan(s.ocr.Provider(), err, time.Since(start))
	if err != nil {
		os.Remove(filePath)
		s.observer.RecordOCRFailure(s.ocr.Provider(), ocrFailureReason(err))
		return nil, fmt.Errorf("ocr %s: %w", fileName, err)
	}

	result := s.extract(text)
	date, err := time.Parse(receipt.DateLayout, result.Date)
	if err != nil {
		return nil, fmt.Errorf("parse extracted date %q: %w", result.Date, err)
	}

	scan := &models.ReceiptScan{
		ID:          scanID,
		UserID:      userID,
		FileName:    filepath.Base(fileName),
		FileSize:    fileSize,
		FileURL:     "/uploads/" + storedName,
		RawText:     text,
		Description: result.Description,
		Amount:      result.Amount,
		Date:        date,
		Category:    result.Category,
		CreatedAt:   time.Now(),
	}
	if err := s.scanRepo.Create(ctx, scan); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save receipt scan: %w", err)
	}

	s.logger.Info("Receipt scanned",
		zap.String("scan_id", scan.ID.String()),
		zap.String("category", scan.Category),
		zap.Bool("amount_found", result.HasAmount()),
	)

	resp := toScanResponse(scan)
	return &resp, nil
}

// Extract interprets already recognized text without storing anything.
func (s *ReceiptService) Extract(text string) dto.ExtractResponse {
	result := s.extract(sanitizeUTF8(text))
	return dto.ExtractResponse{
		Description: result.Description,
		Amount:      result.Amount,
		Date:        result.Date,
		Category:    result.Category,
	}
}

func (s *ReceiptService) Categories() []string {
	return s.extractor.Categories()
}

func (s *ReceiptService) Get(ctx context.Context, userID, scanID uuid.UUID) (*dto.ScanResponse, error) {
	scan, err := s.ownedScan(ctx, userID, scanID)
	if err != nil {
		return nil, err
	}
	resp := toScanResponse(scan)
	return &resp, nil
}

func (s *ReceiptService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.ScanResponse, error) {
	scans, err := s.scanRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipt scans: %w", err)
	}

	resp := make([]dto.ScanResponse, 0, len(scans))
	for _, scan := range scans {
		resp = append(resp, toScanResponse(scan))
	}
	return resp, nil
}

// Confirm books a scan as an expense. Request fields override the extracted
// ones; a scan can only be confirmed once.
func (s *ReceiptService) Confirm(ctx context.Context, userID, scanID uuid.UUID, req *dto.ConfirmScanRequest) (*dto.TransactionResponse, error) {
	scan, err := s.ownedScan(ctx, userID, scanID)
	if err != nil {
		return nil, err
	}

	if _, err := s.txRepo.GetByScanID(ctx, scanID); err == nil {
		return nil, ErrAlreadyConfirmed
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	amount := scan.Amount
	if req.Amount != nil {
		amount = req.Amount
	}
	if amount == nil || *amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	date := scan.Date
	if req.Date != "" {
		date, err = time.Parse(receipt.DateLayout, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}

	now := time.Now()
	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		ScanID:      &scan.ID,
		Wallet:      strings.TrimSpace(req.Wallet),
		Type:        models.TransactionTypeExpense,
		Amount:      *amount,
		Description: firstNonEmpty(req.Description, scan.Description),
		Category:    firstNonEmpty(req.Category, scan.Category),
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyConfirmed
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.logger.Info("Receipt scan confirmed",
		zap.String("scan_id", scan.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
	)

	resp := toTransactionResponse(tx)
	return &resp, nil
}

func (s *ReceiptService) extract(text string) receipt.Result {
	result := s.extractor.Extract(text)
	s.observer.RecordExtraction(result.Category, result.HasAmount())
	return result
}

func (s *ReceiptService) ownedScan(ctx context.Context, userID, scanID uuid.UUID) (*models.ReceiptScan, error) {
	scan, err := s.scanRepo.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	if scan.UserID != userID {
		return nil, ErrForbidden
	}
	return scan, nil
}

func saveUpload(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to save file: %w", err)
	}
	return size, nil
}

func toScanResponse(scan *models.ReceiptScan) dto.ScanResponse {
	return dto.ScanResponse{
		ID:          scan.ID.String(),
		Description: scan.Description,
		Amount:      scan.Amount,
		Date:        scan.Date.Format(receipt.DateLayout),
		Category:    scan.Category,
		RawText:     scan.RawText,
		FileName:    scan.FileName,
		CreatedAt:   scan.CreatedAt.Format(time.RFC3339),
	}
}

func ocrFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrRecognizerUnavailable):
		return "circuit_open"
	case errors.Is(err, ErrModelRefused):
		return "refused"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
