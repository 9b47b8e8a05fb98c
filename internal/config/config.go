package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Admin     AdminConfig
	PayPal    PayPalConfig
	Checkout  CheckoutConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port    string
	Env     string
	SiteURL string
}

// IsProduction reports whether cookies must be Secure and logs JSON.
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseConfig selects the storage driver. Path is used by sqlite3, the
// remaining fields by postgres.
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type SessionConfig struct {
	Secret                 string
	TTLDays                int
	ResetTokenTTLMinutes   int
	CleanupIntervalMinutes int // 0 disables the background sweep
}

type AdminConfig struct {
	Username     string
	Password     string
	SessionHours int
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string // sandbox or live
	BaseURL      string
	Currency     string
	BrandName    string
}

// Configured reports whether credentials are present.
func (c PayPalConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type CheckoutConfig struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	OrderWriteMode        string // best_effort or transactional
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	OrderWriteBestEffort    = "best_effort"
	OrderWriteTransactional = "transactional"
)

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	viper.AutomaticEnv()
	setDefaults()

	return &Config{
		Server: ServerConfig{
			Port:    viper.GetString("SERVER_PORT"),
			Env:     viper.GetString("SERVER_ENV"),
			SiteURL: strings.TrimRight(viper.GetString("SITE_URL"), "/"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			Path:     viper.GetString("DB_PATH"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Requests:      viper.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Session: SessionConfig{
			Secret:                 viper.GetString("SESSION_SECRET"),
			TTLDays:                viper.GetInt("SESSION_TTL_DAYS"),
			ResetTokenTTLMinutes:   viper.GetInt("RESET_TOKEN_TTL_MINUTES"),
			CleanupIntervalMinutes: viper.GetInt("SESSION_CLEANUP_INTERVAL_MINUTES"),
		},
		Admin: AdminConfig{
			Username:     viper.GetString("ADMIN_USERNAME"),
			Password:     viper.GetString("ADMIN_PASSWORD"),
			SessionHours: viper.GetInt("ADMIN_SESSION_HOURS"),
		},
		PayPal: PayPalConfig{
			ClientID:     viper.GetString("PAYPAL_CLIENT_ID"),
			ClientSecret: viper.GetString("PAYPAL_CLIENT_SECRET"),
			Mode:         viper.GetString("PAYPAL_MODE"),
			BaseURL:      viper.GetString("PAYPAL_BASE_URL"),
			Currency:     viper.GetString("PAYPAL_CURRENCY"),
			BrandName:    viper.GetString("PAYPAL_BRAND_NAME"),
		},
		Checkout: CheckoutConfig{
			TaxRate:               getDecimal("CHECKOUT_TAX_RATE"),
			FreeShippingThreshold: getDecimal("CHECKOUT_FREE_SHIPPING_THRESHOLD"),
			FlatShipping:          getDecimal("CHECKOUT_FLAT_SHIPPING"),
			OrderWriteMode:        viper.GetString("ORDER_WRITE_MODE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SITE_URL", "http://localhost:3000")

	viper.SetDefault("DB_DRIVER", "sqlite3")
	viper.SetDefault("DB_PATH", "storefront.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	viper.SetDefault("SESSION_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("SESSION_TTL_DAYS", 30)
	viper.SetDefault("RESET_TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("SESSION_CLEANUP_INTERVAL_MINUTES", 60)

	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("ADMIN_PASSWORD", "admin123")
	viper.SetDefault("ADMIN_SESSION_HOURS", 24)

	viper.SetDefault("PAYPAL_MODE", "sandbox")
	viper.SetDefault("PAYPAL_CURRENCY", "USD")
	viper.SetDefault("PAYPAL_BRAND_NAME", "Kitchen Store")

	for key, value := range decimalDefaults {
		viper.SetDefault(key, value)
	}
	viper.SetDefault("ORDER_WRITE_MODE", OrderWriteBestEffort)

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

var decimalDefaults = map[string]string{
	"CHECKOUT_TAX_RATE":                "0.08",
	"CHECKOUT_FREE_SHIPPING_THRESHOLD": "50",
	"CHECKOUT_FLAT_SHIPPING":           "8.99",
}

func getDecimal(key string) decimal.Decimal {
	d, err := decimal.NewFromString(viper.GetString(key))
	if err != nil {
		log.Printf("Warning: invalid decimal for %s, using default: %v", key, err)
		return decimal.RequireFromString(decimalDefaults[key])
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
