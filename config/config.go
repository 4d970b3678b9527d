package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string
	Port        string
	GoEnv       string
	LogLevel    string
	PublicURL   string // externally visible base URL of this API

	// Session tokens issued by this service
	JWTSecret       string
	SessionIssuer   string
	SessionAudience string
	SessionTTL      time.Duration

	// Optional external identity provider (RS256 via JWKS)
	Auth0Domain   string
	Auth0Audience string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3PublicBaseURL    string
	UploadDir          string

	TossSecretKey string
	TossBaseURL   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string // overrides the API endpoint, empty uses the SDK default

	SheetWebhookURL      string
	ChatLogWebhookURL    string
	KafkaBrokers         []string
	KafkaTranscriptTopic string

	JaegerEndpoint     string
	CORSAllowedOrigins []string

	// Proxies whose X-Forwarded-For is believed. Empty trusts none, so the
	// client IP is always the socket peer.
	TrustedProxies []string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Hosted deployments set variables directly
			logger.L().Info("No .env file found, using system environment variables")
		}
	} else {
		logger.L().Info("Loaded configuration", zap.String("file", envFile))
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	port := getEnv("PORT", "8080")

	config := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		Port:                 port,
		PublicURL:            strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		GoEnv:                getEnv("GO_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		SessionIssuer:        getEnv("SESSION_ISSUER", "aimoney-api"),
		SessionAudience:      getEnv("SESSION_AUDIENCE", "aimoney-web"),
		SessionTTL:           ttl,
		Auth0Domain:          getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:        getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:            getEnv("AWS_REGION", "ap-northeast-2"),
		AWSS3Bucket:          getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3PublicBaseURL:      getEnv("S3_PUBLIC_BASE_URL", ""),
		UploadDir:            getEnv("UPLOAD_DIR", "./uploads"),
		TossSecretKey:        getEnv("TOSS_SECRET_KEY", ""),
		TossBaseURL:          getEnv("TOSS_BASE_URL", "https://api.tosspayments.com"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", ""),
		SheetWebhookURL:      getEnv("SHEET_WEBHOOK_URL", ""),
		ChatLogWebhookURL:    getEnv("CHAT_LOG_WEBHOOK_URL", ""),
		KafkaBrokers:         splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTranscriptTopic: getEnv("KAFKA_TRANSCRIPT_TOPIC", "chat-transcripts"),
		JaegerEndpoint:       getEnv("JAEGER_ENDPOINT", ""),
		CORSAllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		TrustedProxies:       splitList(getEnv("TRUSTED_PROXIES", "")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && c.Auth0Domain == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH0_DOMAIN is not set")
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", proxy)
		}
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// UsesExternalIdentityProvider reports whether sessions are issued by an external
// provider and verified through its JWKS endpoint.
func (c *Config) UsesExternalIdentityProvider() bool {
	return c.Auth0Domain != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
