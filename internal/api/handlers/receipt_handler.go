package handlers

import (
	"errors"

	"fintrack/internal/dto"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptFormField is the multipart field carrying the receipt image.
const ReceiptFormField = "receipt"

type ReceiptHandler struct {
	receiptService ReceiptService
	maxUploadSize  int64
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService ReceiptService, maxUploadSize int64, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		maxUploadSize:  maxUploadSize,
		logger:         logger,
	}
}

// Scan godoc
// @Summary Scan a receipt
// @Description Run OCR on a receipt image or PDF and extract description, amount, date and category
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param receipt formData file true "Receipt image (jpg, jpeg, png), PDF or plain text"
// @Security Bearer
// @Success 200 {object} dto.ScanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/receipts/scan [post]
func (h *ReceiptHandler) Scan(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	file, err := c.FormFile(ReceiptFormField)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "No file uploaded")
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		return errorResponse(c, fiber.StatusRequestEntityTooLarge, "File too large")
	}

	src, err := file.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Failed to open file")
	}
	defer src.Close()

	resp, err := h.receiptService.Scan(c.Context(), userID, src, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFormat):
			return errorResponse(c, fiber.StatusBadRequest, "Unsupported file format")
		case errors.Is(err, service.ErrEmptyUpload):
			return errorResponse(c, fiber.StatusBadRequest, "Uploaded file is empty")
		}
		h.logger.Error("OCR error", zap.String("file", file.Filename), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process receipt image")
	}

	return c.JSON(resp)
}

// Extract godoc
// @Summary Extract fields from receipt text
// @Description Interpret already recognized receipt text without storing anything
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body dto.ExtractRequest true "Raw OCR text"
// @Security Bearer
// @Success 200 {object} dto.ExtractResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/receipts/extract [post]
func (h *ReceiptHandler) Extract(c *fiber.Ctx) error {
	var req dto.ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	return c.JSON(h.receiptService.Extract(req.Text))
}

// Categories godoc
// @Summary List receipt categories
// @Tags receipts
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/receipts/categories [get]
func (h *ReceiptHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(dto.CategoriesResponse{Categories: h.receiptService.Categories()})
}

// ListScans godoc
// @Summary List scanned receipts
// @Tags receipts
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.ScanListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts [get]
func (h *ReceiptHandler) ListScans(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	limit, offset := dto.NormalizePage(c.QueryInt("limit", dto.DefaultPageLimit), c.QueryInt("offset", 0))

	scans, err := h.receiptService.List(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list receipt scans", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list receipts")
	}

	return c.JSON(dto.ScanListResponse{Scans: scans, Limit: limit, Offset: offset})
}

// GetScan godoc
// @Summary Get a scanned receipt
// @Tags receipts
// @Produce json
// @Param id path string true "Scan ID"
// @Security Bearer
// @Success 200 {object} dto.ScanResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [get]
func (h *ReceiptHandler) GetScan(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	scanID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid receipt ID")
	}

	scan, err := h.receiptService.Get(c.Context(), userID, scanID)
	if err != nil {
		return h.scanError(c, err, "Failed to load receipt")
	}

	return c.JSON(scan)
}

// ConfirmScan godoc
// @Summary Book a scanned receipt as an expense
// @Description Create a transaction from a scan. Body fields override the extracted values.
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Scan ID"
// @Param request body dto.ConfirmScanRequest false "Overrides"
// @Security Bearer
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/receipts/{id}/confirm [post]
func (h *ReceiptHandler) ConfirmScan(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	scanID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid receipt ID")
	}

	var req dto.ConfirmScanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	tx, err := h.receiptService.Confirm(c.Context(), userID, scanID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyConfirmed):
			return errorResponse(c, fiber.StatusConflict, "Receipt already confirmed")
		case errors.Is(err, service.ErrInvalidInput):
			return errorResponse(c, fiber.StatusBadRequest, inputMessage(err))
		}
		return h.scanError(c, err, "Failed to confirm receipt")
	}

	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (h *ReceiptHandler) scanError(c *fiber.Ctx, err error, fallback string) error {
	// foreign scans look missing so IDs cannot be probed
	if errors.Is(err, service.ErrScanNotFound) || errors.Is(err, service.ErrForbidden) {
		return errorResponse(c, fiber.StatusNotFound, "Receipt not found")
	}
	h.logger.Error(fallback, zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, fallback)
}
