package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Payment   PaymentConfig
	Storage   StorageConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"5000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" envDefault:"storefront"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" envDefault:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// AuthConfig holds session and account-protection settings.
type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	TokenTTL         time.Duration `env:"JWT_EXPIRE" envDefault:"720h"`
	CookieName       string        `env:"AUTH_COOKIE_NAME" envDefault:"token"`
	CookieSecure     bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	RefreshWindow    time.Duration `env:"AUTH_REFRESH_WINDOW" envDefault:"24h"`
	MaxLoginAttempts int           `env:"AUTH_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockDuration     time.Duration `env:"AUTH_LOCK_DURATION" envDefault:"15m"`
	ResetTokenTTL    time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"10m"`
	VerifyTokenTTL   time.Duration `env:"AUTH_VERIFY_TOKEN_TTL" envDefault:"24h"`
}

// CORSConfig lists the front-end origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `env:"CLIENT_URL" envDefault:"http://localhost:3000" envSeparator:","`
}

// RateLimitConfig limits requests per client IP. Requests/Window cover all
// of /api; the others add tighter limits to individual auth routes. Windows
// slide rather than reset on a fixed boundary.
type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	LoginRequests          int           `env:"RATE_LIMIT_LOGIN_REQUESTS" envDefault:"5"`
	LoginWindow            time.Duration `env:"RATE_LIMIT_LOGIN_WINDOW" envDefault:"15m"`
	RegisterRequests       int           `env:"RATE_LIMIT_REGISTER_REQUESTS" envDefault:"3"`
	RegisterWindow         time.Duration `env:"RATE_LIMIT_REGISTER_WINDOW" envDefault:"1h"`
	ForgotPasswordRequests int           `env:"RATE_LIMIT_FORGOT_PASSWORD_REQUESTS" envDefault:"3"`
	ForgotPasswordWindow   time.Duration `env:"RATE_LIMIT_FORGOT_PASSWORD_WINDOW" envDefault:"15m"`
}

// MailConfig holds outbound email settings. An empty API key logs mail
// instead of sending it.
type MailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromEmail      string `env:"FROM_EMAIL" envDefault:"noreply@storefront.local"`
	FromName       string `env:"FROM_NAME" envDefault:"Storefront"`
	FrontendURL    string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

// PaymentConfig holds the card gateway and wallet mock settings.
type PaymentConfig struct {
	GatewayURL    string        `env:"PAYMENT_GATEWAY_URL" envDefault:"https://api.stripe.com"`
	SecretKey     string        `env:"STRIPE_SECRET_KEY"`
	Currency      string        `env:"PAYMENT_CURRENCY" envDefault:"pkr"`
	Timeout       time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"10s"`
	WalletLatency time.Duration `env:"PAYMENT_WALLET_LATENCY" envDefault:"1s"`
}

// StorageConfig holds upload storage configuration.
type StorageConfig struct {
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicPrefix string `env:"UPLOAD_PUBLIC_PREFIX" envDefault:"/uploads"`
	MaxFileSize  int64  `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"5242880"`
	MaxFiles     int    `env:"UPLOAD_MAX_FILES" envDefault:"10"`
	S3           S3Config
}

// S3Config holds AWS S3 configuration for uploaded images.
type S3Config struct {
	Enabled bool   `env:"S3_ENABLED" envDefault:"false"`
	Bucket  string `env:"S3_BUCKET"`
	Region  string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix  string `env:"S3_PREFIX" envDefault:"uploads/"` // Path prefix within bucket
}

// Load loads configuration from environment variables, reading a .env file
// first when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}

	if c.Auth.MaxLoginAttempts < 1 {
		return fmt.Errorf("max login attempts must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requires a positive request count and window")
	}

	if c.Storage.MaxFileSize < 1 {
		return fmt.Errorf("upload max file size must be positive")
	}

	if c.Storage.S3.Enabled {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
