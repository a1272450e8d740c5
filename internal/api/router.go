package api

import (
	"time"

	"fintrack/docs"
	"fintrack/internal/api/handlers"
	"fintrack/internal/metrics"
	"fintrack/pkg/auth"
	"fintrack/pkg/config"
	"fintrack/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Receipt     *handlers.ReceiptHandler
	Transaction *handlers.TransactionHandler
}

// multipart framing on top of the file itself
const bodyLimitSlack = 1 << 20

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	appMetrics *metrics.Metrics,
	cfg *config.Config,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.OCR.MaxUploadSize) + bodyLimitSlack,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code == fiber.StatusInternalServerError {
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(appMetrics.Middleware())

	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(appMetrics.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Static("/uploads", cfg.OCR.UploadDir)

	userAuth := app.Group("/user/auth")
	userAuth.Post("/register", h.Auth.Register)
	userAuth.Post("/login", h.Auth.Login)
	userAuth.Post("/refresh", h.Auth.RefreshToken)

	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	protected.Get("/me", h.Auth.Me)
	protected.Put("/me", h.Auth.UpdateMe)

	scanLimiter := limiter.New(limiter.Config{
		Max:        cfg.Server.ScanRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals(middleware.LocalUserID).(string); ok {
				return id
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many scans, try again later",
			})
		},
	})

	receipts := protected.Group("/receipts")
	receipts.Post("/scan", scanLimiter, h.Receipt.Scan)
	receipts.Post("/extract", h.Receipt.Extract)
	receipts.Get("/categories", h.Receipt.Categories)
	receipts.Get("", h.Receipt.ListScans)
	receipts.Get("/:id", h.Receipt.GetScan)
	receipts.Post("/:id/confirm", h.Receipt.ConfirmScan)

	protected.Get("/transactions", h.Transaction.ListTransactions)

	return app
}
