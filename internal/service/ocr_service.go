package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/pkg/config"
	"fintrack/pkg/resilience"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Recognizer turns an image file into text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, path string) (string, error)
}

type OCRService struct {
	recognizer Recognizer
	logger     *zap.Logger
}

func NewOCRService(recognizer Recognizer, logger *zap.Logger) *OCRService {
	return &OCRService{
		recognizer: recognizer,
		logger:     logger,
	}
}

// Provider names the recognizer used for images.
func (s *OCRService) Provider() string {
	return s.recognizer.Name()
}

// ExtractText reads text from a receipt file.
// PDFs go through go-fitz, .txt files are read as-is and images are handed to
// the configured recognizer. Empty output is not an error.
func (s *OCRService) ExtractText(ctx context.Context, filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !supportedExtension(ext) {
		return "", fmt.Errorf("%w: %q (supported: jpg, jpeg, png, pdf, txt)", ErrUnsupportedFormat, ext)
	}

	var (
		text   string
		err    error
		method string
	)
	switch ext {
	case ".pdf":
		method = "go-fitz"
		text, err = s.extractTextFromPDF(filePath)
	case ".txt":
		method = "plain"
		var data []byte
		data, err = os.ReadFile(filePath)
		text = string(data)
	default:
		method = s.recognizer.Name()
		text, err = s.recognizer.Recognize(ctx, filePath)
	}
	if err != nil {
		return "", fmt.Errorf("extract text with %s: %w", method, err)
	}

	text = strings.TrimSpace(sanitizeUTF8(text))

	s.logger.Info("OCR extraction completed",
		zap.String("file", filepath.Base(filePath)),
		zap.String("method", method),
		zap.Int("text_length", len(text)),
	)
	if text == "" {
		s.logger.Warn("No text recognized", zap.String("file", filepath.Base(filePath)))
	}

	return text, nil
}

func (s *OCRService) extractTextFromPDF(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", pdfPath),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	s.logger.Debug("PDF text extracted",
		zap.String("file", pdfPath),
		zap.Int("pages", doc.NumPage()),
	)

	return textBuilder.String(), nil
}

// NewRecognizer builds the recognizer selected by OCR_PROVIDER.
func NewRecognizer(cfg *config.Config, logger *zap.Logger) (Recognizer, error) {
	switch cfg.OCR.Provider {
	case "tesseract":
		return NewTesseractRecognizer(cfg.OCR.Languages), nil
	case "gigachat":
		breaker := resilience.NewBreaker("gigachat_ocr", cfg.Breaker, IsGigaChatFailure, logger)
		return NewGigaChatRecognizer(&cfg.GigaChat, breaker, logger), nil
	}
	return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCR.Provider)
}
