package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "change-me-session-secret"

// Config holds all application configuration
type Config struct {
	// Environment name: development, test, production
	Env string

	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	OAuth     OAuthConfig
	Payments  PaymentsConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  string
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// SessionConfig holds cookie session settings
type SessionConfig struct {
	Name   string
	Secret string
	MaxAge int // seconds
	Secure bool
}

// OAuthConfig holds the Google identity provider settings
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURL        string
}

// Enabled reports whether Google login is configured
func (c OAuthConfig) Enabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// PaymentsConfig holds Stripe checkout settings
type PaymentsConfig struct {
	StripeSecretKey   string
	SuccessURL        string
	CancelURL         string
	DefaultCurrency   string
	ReconcileInterval time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL string
}

// RateLimitConfig holds per-route write limits
type RateLimitConfig struct {
	Enabled            bool
	Window             time.Duration
	CommentsPerWindow  int
	DonationsPerWindow int
	SubscribePerWindow int
	LoginPerWindow     int
}

// UploadConfig holds image upload settings
type UploadConfig struct {
	Dir           string
	PublicPrefix  string
	MaxUploadSize int64 // in bytes
	WebPQuality   int
	MaxDimension  int
}

// CacheConfig holds in-process cache settings
type CacheConfig struct {
	Size        int
	CategoryTTL time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "riocapital_blog"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Session: SessionConfig{
			Name:   getEnv("SESSION_NAME", "riocapital_session"),
			Secret: getEnv("SESSION_SECRET", defaultSessionSecret),
			MaxAge: getIntEnv("SESSION_MAX_AGE", 7*24*3600),
			Secure: getBoolEnv("SESSION_SECURE", false),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:        getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		},
		Payments: PaymentsConfig{
			StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
			SuccessURL:        getEnv("STRIPE_SUCCESS_URL", "http://localhost:5173/donate/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:         getEnv("STRIPE_CANCEL_URL", "http://localhost:5173/donate/cancelled"),
			DefaultCurrency:   getEnv("DONATION_CURRENCY", "EUR"),
			ReconcileInterval: getDurationEnv("STRIPE_RECONCILE_INTERVAL", time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:            getBoolEnv("RATE_LIMIT_ENABLED", true),
			Window:             getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			CommentsPerWindow:  getIntEnv("RATE_LIMIT_COMMENTS", 5),
			DonationsPerWindow: getIntEnv("RATE_LIMIT_DONATIONS", 5),
			SubscribePerWindow: getIntEnv("RATE_LIMIT_SUBSCRIBE", 3),
			LoginPerWindow:     getIntEnv("RATE_LIMIT_LOGIN", 10),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "./data/uploads"),
			PublicPrefix:  getEnv("UPLOAD_PUBLIC_PREFIX", "/static/uploads"),
			MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
			WebPQuality:   getIntEnv("UPLOAD_WEBP_QUALITY", 80),
			MaxDimension:  getIntEnv("UPLOAD_MAX_DIMENSION", 2048),
		},
		Cache: CacheConfig{
			Size:        getIntEnv("CACHE_SIZE", 500),
			CategoryTTL: getDurationEnv("CACHE_CATEGORY_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.IsProduction() {
		if c.Session.Secret == defaultSessionSecret {
			return fmt.Errorf("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
		}
	}
	if c.Upload.WebPQuality < 1 || c.Upload.WebPQuality > 100 {
		return fmt.Errorf("UPLOAD_WEBP_QUALITY must be between 1 and 100")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
