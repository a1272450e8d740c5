package handlers

import (
	"errors"
	"strings"

	"fintrack/internal/dto"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user with username, email and password (at least 6 characters)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /user/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Register(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			return errorResponse(c, fiber.StatusConflict, "User already exists")
		case errors.Is(err, service.ErrInvalidInput):
			return errorResponse(c, fiber.StatusBadRequest, inputMessage(err))
		}
		h.logger.Error("Registration failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login godoc
// @Summary Login user
// @Description Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /user/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Email and password are required")
	}

	resp, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		h.logger.Error("Login failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed")
	}

	return c.JSON(resp)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /user/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUserNotFound) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token")
		}
		h.logger.Error("Token refresh failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Token refresh failed")
	}

	return c.JSON(resp)
}

// Me godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.authService.Me(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "User not found")
		}
		h.logger.Error("Failed to load profile", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load profile")
	}

	return c.JSON(user)
}

// UpdateMe godoc
// @Summary Update current user profile
// @Description Change username or email. Changing the password requires current_password.
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.UpdateMeRequest true "Profile changes"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/me [put]
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.authService.UpdateMe(c.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return errorResponse(c, fiber.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrWrongPassword):
			return errorResponse(c, fiber.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, service.ErrInvalidInput):
			return errorResponse(c, fiber.StatusBadRequest, inputMessage(err))
		case errors.Is(err, service.ErrUserExists):
			return errorResponse(c, fiber.StatusConflict, "Email is already in use")
		}
		h.logger.Error("Failed to update profile", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update profile")
	}

	return c.JSON(user)
}

// inputMessage turns "invalid input: password must be ..." into a
// user-facing sentence.
func inputMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
