package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAccessSecret  = "default-secret-change-this"
	DefaultRefreshSecret = "default-refresh-secret-change-this"
)

type Config struct {
	AppEnv    string
	Port      string
	Postgres  PostgresConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Cookie    CookieConfig
	Bcrypt    BcryptConfig
	CORS      CORSConfig
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
}

type CookieConfig struct {
	Secure bool
}

type BcryptConfig struct {
	Cost int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (Config, error) {
	appEnv := getenv("APP_ENV", "development")

	accessExpiry, err := parseExpiry(getenv("JWT_EXPIRY", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWT_EXPIRY: %w", err)
	}
	refreshExpiry, err := parseExpiry(getenv("JWT_REFRESH_EXPIRY", "7d"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWT_REFRESH_EXPIRY: %w", err)
	}

	windowMs, err := strconv.ParseInt(getenv("RATE_LIMIT_WINDOW_MS", "900000"), 10, 64)
	if err != nil || windowMs <= 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW_MS")
	}
	maxRequests, err := strconv.Atoi(getenv("RATE_LIMIT_MAX_REQUESTS", "100"))
	if err != nil || maxRequests <= 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_MAX_REQUESTS")
	}

	bcryptCost, err := strconv.Atoi(getenv("BCRYPT_COST", "10"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST")
	}

	cookieSecure := appEnv == "production"
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cookieSecure, err = strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COOKIE_SECURE")
		}
	}

	return Config{
		AppEnv: appEnv,
		Port:   getenv("PORT", "8080"),
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_SECRET", DefaultAccessSecret),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", DefaultRefreshSecret),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		RateLimit: RateLimitConfig{
			Window:      time.Duration(windowMs) * time.Millisecond,
			MaxRequests: maxRequests,
		},
		Email: EmailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			FromEmail:    getenv("RESEND_FROM_EMAIL", "noreply@apnisec.com"),
		},
		Cookie: CookieConfig{Secure: cookieSecure},
		Bcrypt: BcryptConfig{Cost: bcryptCost},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}, nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// parseExpiry accepts time.ParseDuration syntax plus a day suffix ("7d"),
// which the refresh-token default uses.
func parseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", value)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
