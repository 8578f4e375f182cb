package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type LinkedIn struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIURL       string
	APIVersion   string
	RatePerSec   int
}

type Publish struct {
	Interval     string
	Workers      int
	ClaimTimeout time.Duration
	CallTimeout  time.Duration
}

type Config struct {
	Port               string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	LinkedIn           LinkedIn
	R2                 R2
	Publish            Publish
	OAuthStateTTL      time.Duration
	SecretKey          string
	CookieName         string
	LogLevel           string
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "8000"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		LinkedIn: LinkedIn{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
			APIURL:       getEnv("LINKEDIN_API_URL", "https://api.linkedin.com"),
			APIVersion:   getEnv("LINKEDIN_API_VERSION", "202401"),
			RatePerSec:   getEnvAsInt("LINKEDIN_RATE_PER_SEC", 5),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Publish: Publish{
			Interval:     getEnv("PUBLISH_INTERVAL", "@every 1m"),
			Workers:      getEnvAsInt("PUBLISH_WORKERS", 4),
			ClaimTimeout: getEnvDuration("PUBLISH_CLAIM_TIMEOUT", 15*time.Minute),
			CallTimeout:  getEnvDuration("PUBLISH_CALL_TIMEOUT", 2*time.Minute),
		},
		OAuthStateTTL: getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "session"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
