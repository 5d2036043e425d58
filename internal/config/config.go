package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Upstream services
	RiskBaseURL      string
	WeatherBaseURL   string
	UpstreamTimeout  time.Duration

	// Postgres (alert audit log)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis (live state + feed mirror)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pipeline channels
	StateChannelSize int
	FeedChannelSize  int
	AuditChannelSize int

	// Auth
	ValidAPIKeys        []string
	AuthCacheTTLSeconds int
}

func Load() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8001"),
		RiskBaseURL:         getEnv("RISK_API_BASE", ""),
		WeatherBaseURL:      getEnv("WEATHER_API_BASE", ""),
		UpstreamTimeout:     time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "monitor_user"),
		DBPassword:          getEnv("DB_PASSWORD", "monitor_password"),
		DBName:              getEnv("DB_NAME", "road_monitor"),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		StateChannelSize:    getEnvInt("STATE_CHANNEL_SIZE", 1000),
		FeedChannelSize:     getEnvInt("FEED_CHANNEL_SIZE", 1000),
		AuditChannelSize:    getEnvInt("AUDIT_CHANNEL_SIZE", 100),
		ValidAPIKeys:        strings.Split(getEnv("VALID_API_KEYS", ""), ","),
		AuthCacheTTLSeconds: getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
