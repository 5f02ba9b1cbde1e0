package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                   string
	LogDir                 string
	LogRetentionDays       int
	DatabaseURL            string
	JWTSecret              string
	JWTIssuer              string
	AccessTTLSeconds       int64
	RefreshTTLSeconds      int64
	MediaStoragePath       string
	PublicBaseURL          string
	CorsOrigins            []string
	WishlistLimit          int
	OTPTTLSeconds          int
	OTPMaxAttempts         int
	RedisURL               string
	SMTP                   SMTPConfig
	DashboardSampleSeconds int
	DashboardDiskPath      string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

func Load() Config {
	return Config{
		Port:              envOr("PORT", "8080"),
		LogDir:            envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:  envOrInt("LOG_RETENTION_DAYS", 7),
		DatabaseURL:       mustEnv("DATABASE_URL"),
		JWTSecret:         mustEnv("JWT_SECRET"),
		JWTIssuer:         envOr("JWT_ISSUER", "hostelhub"),
		AccessTTLSeconds:  int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds: int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		MediaStoragePath:  envOr("MEDIA_STORAGE_PATH", "storage/media"),
		PublicBaseURL:     strings.TrimRight(envOr("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CorsOrigins:       parseCSV(envOr("CORS_ORIGINS", "")),
		WishlistLimit:     envOrInt("WISHLIST_LIMIT", 5),
		OTPTTLSeconds:     envOrInt("OTP_TTL_SECONDS", 600),
		OTPMaxAttempts:    envOrInt("OTP_MAX_ATTEMPTS", 5),
		RedisURL:          envOr("REDIS_URL", ""),
		SMTP: SMTPConfig{
			Host:     envOr("SMTP_HOST", ""),
			Port:     envOrInt("SMTP_PORT", 587),
			Username: envOr("SMTP_USERNAME", ""),
			Password: envOr("SMTP_PASSWORD", ""),
			From:     envOr("SMTP_FROM", "noreply@hostelhub.local"),
		},
		DashboardSampleSeconds: envOrInt("DASHBOARD_SAMPLE_SECONDS", 30),
		DashboardDiskPath:      envOr("DASHBOARD_DISK_PATH", "storage/media"),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
