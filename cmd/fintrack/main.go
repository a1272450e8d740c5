package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/api"
	"fintrack/internal/api/handlers"
	"fintrack/internal/metrics"
	"fintrack/internal/receipt"
	"fintrack/internal/repository"
	"fintrack/internal/service"
	"fintrack/pkg/auth"
	"fintrack/pkg/config"
	"fintrack/pkg/logger"
	"fintrack/pkg/postgres"

	"go.uber.org/zap"
)

// @title FinTrack Receipt API
// @version 1.0
// @description Receipt scanning service: OCR plus description, amount, date and category extraction.

// @host localhost:3001
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FinTrack service", zap.String("ocr_provider", cfg.OCR.Provider))

	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(&cfg.Database, appLogger); err != nil {
			appLogger.Fatal("Failed to run migrations", zap.Error(err))
		}
	} else {
		logger.Warn("Automatic migrations disabled, expecting an up to date schema")
	}

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	tables := receipt.DefaultTables()
	if cfg.Receipt.TablesFile != "" {
		tables, err = receipt.LoadTables(cfg.Receipt.TablesFile)
		if err != nil {
			appLogger.Fatal("Failed to load receipt tables", zap.Error(err))
		}
		appLogger.Info("Receipt tables loaded", zap.String("file", cfg.Receipt.TablesFile))
	}
	extractor := receipt.NewExtractor(tables)

	userRepo := repository.NewUserRepository(db, logger.Component(appLogger, "user_repository"))
	scanRepo := repository.NewReceiptScanRepository(db, logger.Component(appLogger, "scan_repository"))
	txRepo := repository.NewTransactionRepository(db, logger.Component(appLogger, "transaction_repository"))

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	appMetrics := metrics.New()

	recognizer, err := service.NewRecognizer(cfg, logger.Component(appLogger, "ocr"))
	if err != nil {
		appLogger.Fatal("Failed to initialize OCR", zap.Error(err))
	}
	ocrService := service.NewOCRService(recognizer, logger.Component(appLogger, "ocr"))

	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	receiptService := service.NewReceiptService(scanRepo, txRepo, ocrService, extractor, appMetrics, cfg.OCR.UploadDir, logger.Component(appLogger, "receipts"))
	txService := service.NewTransactionService(txRepo, appLogger)

	app := api.SetupRouter(api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, appLogger),
		Receipt:     handlers.NewReceiptHandler(receiptService, cfg.OCR.MaxUploadSize, appLogger),
		Transaction: handlers.NewTransactionHandler(txService, appLogger),
	}, jwtManager, appMetrics, cfg, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}
