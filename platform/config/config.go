// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetPublicRateLimit() float64
	GetPublicRateBurst() int
}

// WhatsAppConfig provides settings for the messaging gateway client.
type WhatsAppConfig interface {
	GetWhatsAppHTTPTimeout() time.Duration
	GetTemplateSendInterval() time.Duration
}

// ExtractionConfig provides settings for the AI document-extraction service.
type ExtractionConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsExtractionAIEnabled() bool
}

// SchedulerConfig provides settings for the asynq follow-up scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetFollowUpDelay() time.Duration
}

// AbbreviationConfig provides settings for the abbreviation cache.
type AbbreviationConfig interface {
	GetAbbreviationCacheTTL() time.Duration
	GetRedisURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	JWTAccessSecret           string
	AccessTokenTTL            time.Duration
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	PublicRateLimit           float64
	PublicRateBurst           int
	AppBaseURL                string
	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinIOMaxFileSize          int64
	MinioBucketVehicleImages  string
	MinioBucketPurchaseOrders string
	WhatsAppHTTPTimeout       time.Duration
	TemplateSendInterval      time.Duration
	GeminiAPIKey              string
	GeminiModel               string
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int
	FollowUpDelay             time.Duration
	AbbreviationCacheTTL      time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool     { return c.CORSAllowCreds }
func (c *Config) GetPublicRateLimit() float64 { return c.PublicRateLimit }
func (c *Config) GetPublicRateBurst() int     { return c.PublicRateBurst }

// Link settings
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// storage.Config implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketVehicleImages() string {
	return c.MinioBucketVehicleImages
}
func (c *Config) GetMinioBucketPurchaseOrders() string {
	return c.MinioBucketPurchaseOrders
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppHTTPTimeout() time.Duration  { return c.WhatsAppHTTPTimeout }
func (c *Config) GetTemplateSendInterval() time.Duration { return c.TemplateSendInterval }

// ExtractionConfig implementation
func (c *Config) GetGeminiAPIKey() string     { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string      { return c.GeminiModel }
func (c *Config) IsExtractionAIEnabled() bool { return c.GeminiAPIKey != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetFollowUpDelay() time.Duration { return c.FollowUpDelay }

// AbbreviationConfig implementation
func (c *Config) GetAbbreviationCacheTTL() time.Duration { return c.AbbreviationCacheTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:            mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		PublicRateLimit:           mustFloat(getEnv("PUBLIC_RATE_LIMIT", "2")),
		PublicRateBurst:           int(mustInt64(getEnv("PUBLIC_RATE_BURST", "20"))),
		AppBaseURL:                strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),
		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:          mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketVehicleImages:  getEnv("MINIO_BUCKET_VEHICLE_IMAGES", "vehicle-images"),
		MinioBucketPurchaseOrders: getEnv("MINIO_BUCKET_PURCHASE_ORDERS", "purchase-orders"),
		WhatsAppHTTPTimeout:       mustDuration(getEnv("WHATSAPP_HTTP_TIMEOUT", "30s")),
		TemplateSendInterval:      mustDuration(getEnv("TEMPLATE_SEND_INTERVAL", "1s")),
		GeminiAPIKey:              getEnv("GEMINI_API_KEY", ""),
		GeminiModel:               getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		RedisURL:                  getEnv("REDIS_URL", ""),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:          int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "5"))),
		FollowUpDelay:             mustDuration(getEnv("FOLLOW_UP_DELAY", "24h")),
		AbbreviationCacheTTL:      mustDuration(getEnv("ABBREVIATION_CACHE_TTL", "5m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.AbbreviationCacheTTL <= 0 {
		return nil, fmt.Errorf("ABBREVIATION_CACHE_TTL must be a positive duration")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just enough configuration to reach the store.
// Used by diagnostic commands that must not require the full server settings.
func LoadDatabaseOnly() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{DatabaseURL: getEnv("DATABASE_URL", "")}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
