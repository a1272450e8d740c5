package handlers

import (
	"context"
	"io"

	"fintrack/internal/dto"
	"fintrack/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, req *dto.UpdateMeRequest) (*dto.UserResponse, error)
}

type ReceiptService interface {
	Scan(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string) (*dto.ScanResponse, error)
	Extract(text string) dto.ExtractResponse
	Categories() []string
	Get(ctx context.Context, userID, scanID uuid.UUID) (*dto.ScanResponse, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.ScanResponse, error)
	Confirm(ctx context.Context, userID, scanID uuid.UUID, req *dto.ConfirmScanRequest) (*dto.TransactionResponse, error)
}

type TransactionService interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.TransactionResponse, error)
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
