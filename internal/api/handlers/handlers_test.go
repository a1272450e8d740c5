package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/dto"
	"fintrack/internal/service"
	"fintrack/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testUserID = uuid.MustParse("7f1d3b2a-4c5e-4f60-8a9b-0c1d2e3f4a5b")

type stubReceiptService struct {
	scanErr    error
	scanned    string
	scanBody   string
	confirmErr error
	getErr     error
}

func (s *stubReceiptService) Scan(_ context.Context, _ uuid.UUID, file io.Reader, fileName string) (*dto.ScanResponse, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	data, _ := io.ReadAll(file)
	s.scanned, s.scanBody = fileName, string(data)
	amount := 8.05
	return &dto.ScanResponse{
		ID:          uuid.NewString(),
		Description: "Starbucks",
		Amount:      &amount,
		Date:        "2018-09-24",
		Category:    "Food & Dining",
		RawText:     "STARBUCKS\nTOTAL $8.05",
	}, nil
}

func (s *stubReceiptService) Extract(text string) dto.ExtractResponse {
	return dto.ExtractResponse{Description: "Receipt Purchase", Date: "2025-10-19", Category: "Other"}
}

func (s *stubReceiptService) Categories() []string {
	return []string{"Food & Dining", "Other"}
}

func (s *stubReceiptService) Get(_ context.Context, _, scanID uuid.UUID) (*dto.ScanResponse, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &dto.ScanResponse{ID: scanID.String()}, nil
}

func (s *stubReceiptService) List(context.Context, uuid.UUID, int, int) ([]dto.ScanResponse, error) {
	return []dto.ScanResponse{{ID: "a"}, {ID: "b"}}, nil
}

func (s *stubReceiptService) Confirm(_ context.Context, _, scanID uuid.UUID, req *dto.ConfirmScanRequest) (*dto.TransactionResponse, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &dto.TransactionResponse{ID: uuid.NewString(), ScanID: scanID.String(), Wallet: req.Wallet}, nil
}

func newReceiptApp(svc ReceiptService) *fiber.App {
	h := NewReceiptHandler(svc, 64, zap.NewNop())
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, testUserID.String())
		return c.Next()
	})
	app.Post("/receipts/scan", h.Scan)
	app.Post("/receipts/extract", h.Extract)
	app.Get("/receipts/categories", h.Categories)
	app.Get("/receipts", h.ListScans)
	app.Get("/receipts/:id", h.GetScan)
	app.Post("/receipts/:id/confirm", h.ConfirmScan)
	return app
}

func multipartRequest(t *testing.T, field, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/receipts/scan", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestScanHandler(t *testing.T) {
	svc := &stubReceiptService{}
	app := newReceiptApp(svc)

	resp, err := app.Test(multipartRequest(t, ReceiptFormField, "r.jpg", "image-bytes"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got map[string]any
	decodeBody(t, resp, &got)
	for _, key := range []string{"id", "description", "amount", "date", "category", "rawText"} {
		assert.Contains(t, got, key)
	}
	assert.Equal(t, 8.05, got["amount"])
	assert.Equal(t, "r.jpg", svc.scanned)
	assert.Equal(t, "image-bytes", svc.scanBody)
}

func TestScanHandlerErrors(t *testing.T) {
	tests := []struct {
		name    string
		scanErr error
		field   string
		content string
		status  int
		message string
	}{
		{name: "no file", field: "", status: fiber.StatusBadRequest, message: "No file uploaded"},
		{name: "too large", field: ReceiptFormField, content: strings.Repeat("x", 65), status: fiber.StatusRequestEntityTooLarge, message: "File too large"},
		{name: "unsupported", field: ReceiptFormField, content: "x", scanErr: fmt.Errorf("%w: .gif", service.ErrUnsupportedFormat), status: fiber.StatusBadRequest, message: "Unsupported file format"},
		{name: "ocr failure", field: ReceiptFormField, content: "x", scanErr: errors.New("tesseract exploded"), status: fiber.StatusInternalServerError, message: "Failed to process receipt image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newReceiptApp(&stubReceiptService{scanErr: tt.scanErr})

			resp, err := app.Test(multipartRequest(t, tt.field, "r.jpg", tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var got map[string]string
			decodeBody(t, resp, &got)
			assert.Equal(t, tt.message, got["error"])
		})
	}
}

func TestExtractHandler(t *testing.T) {
	app := newReceiptApp(&stubReceiptService{})

	req := httptest.NewRequest(http.MethodPost, "/receipts/extract", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got map[string]any
	decodeBody(t, resp, &got)
	assert.Equal(t, "Receipt Purchase", got["description"])
	assert.Nil(t, got["amount"])
	assert.Equal(t, "Other", got["category"])
}

func TestGetScanHandler(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "found", path: "/receipts/" + id.String(), status: fiber.StatusOK},
		{name: "bad id", path: "/receipts/not-a-uuid", status: fiber.StatusBadRequest},
		{name: "missing", path: "/receipts/" + id.String(), err: service.ErrScanNotFound, status: fiber.StatusNotFound},
		{name: "foreign", path: "/receipts/" + id.String(), err: service.ErrForbidden, status: fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newReceiptApp(&stubReceiptService{getErr: tt.err})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestConfirmScanHandler(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "no body", status: fiber.StatusCreated},
		{name: "with overrides", body: `{"wallet":"Cash","amount":3.5}`, status: fiber.StatusCreated},
		{name: "already confirmed", err: service.ErrAlreadyConfirmed, status: fiber.StatusConflict},
		{name: "already confirmed wrapped", err: fmt.Errorf("confirm: %w", service.ErrAlreadyConfirmed), status: fiber.StatusConflict},
		{name: "invalid input", err: fmt.Errorf("%w: amount must be positive", service.ErrInvalidInput), status: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newReceiptApp(&stubReceiptService{confirmErr: tt.err})
			req := httptest.NewRequest(http.MethodPost, "/receipts/"+id.String()+"/confirm", strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestListAndCategoriesHandlers(t *testing.T) {
	app := newReceiptApp(&stubReceiptService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/receipts?limit=5", nil))
	require.NoError(t, err)
	var list dto.ScanListResponse
	decodeBody(t, resp, &list)
	assert.Len(t, list.Scans, 2)
	assert.Equal(t, 5, list.Limit)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/receipts?limit=1000&offset=-2", nil))
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	assert.Equal(t, 100, list.Limit)
	assert.Equal(t, 0, list.Offset)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/receipts/categories", nil))
	require.NoError(t, err)
	var cats dto.CategoriesResponse
	decodeBody(t, resp, &cats)
	assert.Equal(t, []string{"Food & Dining", "Other"}, cats.Categories)
}

func TestInputMessage(t *testing.T) {
	err := fmt.Errorf("%w: password must be at least 6 characters", service.ErrInvalidInput)
	assert.Equal(t, "Password must be at least 6 characters", inputMessage(err))
	assert.Equal(t, "Invalid input", inputMessage(service.ErrInvalidInput))
}
