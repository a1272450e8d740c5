package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	OCR      OCRConfig
	GigaChat GigaChatConfig
	Receipt  ReceiptConfig
	Breaker  BreakerConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Requests per minute per client on the scan endpoint.
	ScanRateLimit int
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type OCRConfig struct {
	Provider      string // tesseract or gigachat
	Languages     []string
	UploadDir     string
	MaxUploadSize int64
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type ReceiptConfig struct {
	// Optional YAML file overriding the built-in category/brand/month tables.
	TablesFile string
}

type BreakerConfig struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
	Timeout      time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "168"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "720"))
	maxUploadMB, _ := strconv.Atoi(getEnv("OCR_MAX_UPLOAD_MB", "10"))
	failureRatio, _ := strconv.ParseFloat(getEnv("OCR_BREAKER_FAILURE_RATIO", "0.5"), 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "3001"),
			ReadTimeout:   time.Duration(readTimeout) * time.Second,
			WriteTimeout:  time.Duration(writeTimeout) * time.Second,
			ScanRateLimit: getEnvInt("SCAN_RATE_LIMIT", 30),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "fintrack"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnv("DB_AUTO_MIGRATE", "true") == "true",
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", "fintrack-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		OCR: OCRConfig{
			Provider:      strings.ToLower(getEnv("OCR_PROVIDER", "tesseract")),
			Languages:     splitList(getEnv("OCR_LANGUAGES", "eng")),
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadSize: int64(maxUploadMB) * 1024 * 1024,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
		},
		Receipt: ReceiptConfig{
			TablesFile: getEnv("RECEIPT_TABLES_FILE", ""),
		},
		Breaker: BreakerConfig{
			MinRequests:  uint32(getEnvInt("OCR_BREAKER_MIN_REQUESTS", 5)),
			FailureRatio: failureRatio,
			OpenTimeout:  getEnvDuration("OCR_BREAKER_OPEN_TIMEOUT", 30*time.Second),
			HalfOpenMax:  uint32(getEnvInt("OCR_BREAKER_HALF_OPEN_MAX", 1)),
			Timeout:      getEnvDuration("OCR_TIMEOUT", 60*time.Second),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every configuration problem into a single error.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server port %q", c.Server.Port))
	}
	if c.Server.ScanRateLimit < 1 {
		problems = append(problems, fmt.Sprintf("invalid scan rate limit %d: must be at least 1", c.Server.ScanRateLimit))
	}

	switch c.OCR.Provider {
	case "tesseract":
		if len(c.OCR.Languages) == 0 {
			problems = append(problems, "at least one OCR language is required")
		}
	case "gigachat":
		if c.GigaChat.APIKey == "" {
			problems = append(problems, "GIGACHAT_API_KEY is required when OCR_PROVIDER=gigachat")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid OCR provider %q: must be tesseract or gigachat", c.OCR.Provider))
	}
	if c.OCR.MaxUploadSize <= 0 {
		problems = append(problems, "OCR_MAX_UPLOAD_MB must be positive")
	}
	if c.OCR.UploadDir == "" {
		problems = append(problems, "UPLOAD_DIR cannot be empty")
	}

	if c.JWT.SecretKey == "" {
		problems = append(problems, "JWT_SECRET cannot be empty")
	}
	if c.JWT.Expiration <= 0 || c.JWT.RefreshExp <= 0 {
		problems = append(problems, "JWT expirations must be positive")
	}

	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		problems = append(problems, fmt.Sprintf("invalid breaker failure ratio %v: must be in (0, 1]", c.Breaker.FailureRatio))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
