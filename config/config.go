package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Payment    PaymentConfig
	Withdrawal WithdrawalConfig
	Mail       MailConfig
}

type ServerConfig struct {
	Port          string
	Env           string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	AllowedOrigin string
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// PaymentConfig covers the PayChangu gateway and the webhook shared secret.
type PaymentConfig struct {
	GatewayBaseURL string
	SecretKey      string
	WebhookSecret  string
	AppBaseURL     string // browser redirect target after checkout
	Currency       string
}

// WithdrawalConfig holds the payout guardrails. CreditRateMWK converts
// credits into kwacha.
type WithdrawalConfig struct {
	CreditRateMWK   decimal.Decimal
	MinCredits      decimal.Decimal
	MaxCredits      decimal.Decimal
	DailyCapCredits decimal.Decimal
	MaxPerHour      int
	CreditAgingDays int
}

type MailConfig struct {
	SMTPHost string
	SMTPPort string
	Sender   string
	Password string
}

func Load() *Config {
	// .env is optional; real deployments use the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("[Config] loaded .env")
	}
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Env:           getEnv("APP_ENV", "development"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "coachly:coachly@tcp(localhost:3306)/coachly?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "coachly"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
		Payment: PaymentConfig{
			GatewayBaseURL: getEnv("PAYCHANGU_BASE_URL", "https://api.paychangu.com"),
			SecretKey:      getEnv("PAYCHANGU_SECRET_KEY", ""),
			WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
			AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:3000"),
			Currency:       getEnv("PAYMENT_CURRENCY", "MWK"),
		},
		Withdrawal: WithdrawalConfig{
			CreditRateMWK:   getDecimal("CREDIT_RATE_MWK", "1000"),
			MinCredits:      getDecimal("WITHDRAWAL_MIN_CREDITS", "10"),
			MaxCredits:      getDecimal("WITHDRAWAL_MAX_CREDITS", "10000"),
			DailyCapCredits: getDecimal("WITHDRAWAL_DAILY_CAP_CREDITS", "20000"),
			MaxPerHour:      getInt("WITHDRAWAL_RATE_PER_HOUR", 3),
			CreditAgingDays: getInt("CREDIT_AGING_DAYS", 0),
		},
		Mail: MailConfig{
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnv("SMTP_PORT", "587"),
			Sender:   getEnv("SMTP_SENDER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[Config] invalid int for %s, using default", key)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[Config] invalid duration for %s, using default", key)
	}
	return fallback
}

func getDecimal(key, fallback string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
		log.Printf("[Config] invalid decimal for %s, using default", key)
	}
	return decimal.RequireFromString(fallback)
}
