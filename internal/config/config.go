// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for all databases (always absolute)
	Port      int
	LogLevel  string
	LogPretty bool
	DevMode   bool

	JWTSecret string
	TokenTTL  time.Duration

	CoinGeckoBaseURL string
	AlphaVantage     AlphaVantageConfig

	PriceRefreshSchedule string
	DefaultCryptoIDs     []string
	DefaultStockSymbols  []string
	SeriesCacheTTL       time.Duration
	MaintenanceSchedule  string

	Backup BackupConfig
}

// AlphaVantageConfig configures the equity quote upstream
type AlphaVantageConfig struct {
	APIKey     string
	BaseURL    string
	DailyLimit int // 0 = unlimited
}

// BackupConfig configures off-site database backups. Backups are disabled
// unless Bucket is set.
type BackupConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string
	RetentionDays   int
}

// Enabled reports whether backups are configured
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// devJWTSecret signs tokens in dev mode when JWT_SECRET is unset.
const devJWTSecret = "folio-dev-secret"

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FOLIO_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("PORT", 8001),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		DevMode:   getEnvAsBool("DEV_MODE", false),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),

		CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", ""),
		AlphaVantage: AlphaVantageConfig{
			APIKey:     getEnv("ALPHA_VANTAGE_API_KEY", ""),
			BaseURL:    getEnv("ALPHA_VANTAGE_BASE_URL", ""),
			DailyLimit: getEnvAsInt("ALPHA_VANTAGE_DAILY_LIMIT", 25),
		},

		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "@every 2m"),
		DefaultCryptoIDs:     getEnvAsList("DEFAULT_CRYPTO_IDS", "bitcoin,ethereum,cardano,solana,ripple"),
		DefaultStockSymbols:  getEnvAsList("DEFAULT_STOCK_SYMBOLS", ""),
		SeriesCacheTTL:       getEnvAsDuration("SERIES_CACHE_TTL", 15*time.Minute),
		MaintenanceSchedule:  getEnv("MAINTENANCE_SCHEDULE", "0 30 4 * * *"),

		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if cfg.JWTSecret == "" && cfg.DevMode {
		cfg.JWTSecret = devJWTSecret
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside dev mode")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.AlphaVantage.DailyLimit < 0 {
		return fmt.Errorf("ALPHA_VANTAGE_DAILY_LIMIT must not be negative")
	}
	if c.SeriesCacheTTL <= 0 {
		return fmt.Errorf("SERIES_CACHE_TTL must be positive")
	}
	if strings.TrimSpace(c.PriceRefreshSchedule) == "" {
		return fmt.Errorf("PRICE_REFRESH_SCHEDULE is required")
	}
	if c.Backup.Enabled() && strings.TrimSpace(c.Backup.Schedule) == "" {
		return fmt.Errorf("BACKUP_SCHEDULE is required when BACKUP_BUCKET is set")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
