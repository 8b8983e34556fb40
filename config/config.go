package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultCORSOrigins = []string{
	"http://localhost",
	"http://localhost:5173",
	"http://127.0.0.1",
	"http://127.0.0.1:5173",
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string
	RunMigrations  bool
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	ServerPort     int
	LogLevel       slog.Level

	CORSAllowedOrigins []string

	UploadDir        string
	UploadPublicPath string
	UploadMaxBytes   int64

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	AdminUsername string
	AdminPassword string
}

// R2Enabled сообщает, заданы ли все параметры Cloudflare R2.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	ttlMinutes, err := intFromEnv("ACCESS_TOKEN_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", ttlMinutes)
	}

	maxUpload, err := intFromEnv("UPLOAD_MAX_BYTES", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", maxUpload)
	}

	runMigrations := true
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		runMigrations, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RUN_MIGRATIONS environment variable: %w", err)
		}
	}

	var level slog.Level
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		RunMigrations:      runMigrations,
		JWTSecretKey:       jwtKey,
		AccessTokenTTL:     time.Duration(ttlMinutes) * time.Minute,
		ServerPort:         port,
		LogLevel:           level,
		CORSAllowedOrigins: listFromEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		UploadDir:          stringFromEnv("UPLOAD_DIR", "./uploads"),
		UploadPublicPath:   "/" + strings.Trim(stringFromEnv("UPLOAD_PUBLIC_PATH", "/static/uploads"), "/"),
		UploadMaxBytes:     int64(maxUpload),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		AdminUsername:      stringFromEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	return cfg, nil
}

func stringFromEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func listFromEnv(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
