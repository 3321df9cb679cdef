package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// MaxRequestBytes caps every request body.
	MaxRequestBytes int64 = 16 * 1024 * 1024
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

type Config struct {
	APIPort string
	Env     string

	SessionSecret []byte
	SessionTTL    time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP replace the peer
	// address. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool

	AllowedOrigins []string
	// InvalidOrigins holds ALLOWED_ORIGINS entries that were dropped.
	InvalidOrigins []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string

	LogLevel  string
	LogFormat string

	AuthRateLimitPerSecond int
	AuthRateLimitBurst     int
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// GoogleEnabled reports whether the OAuth routes can be served.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load reads the environment and rejects a configuration the API server
// cannot run with.
func Load() (*Config, error) {
	cfg := FromEnv()
	if len(cfg.SessionSecret) == 0 {
		return nil, errors.New("required environment variable SESSION_SECRET is not set")
	}
	return cfg, nil
}

// FromEnv reads the process environment, after merging an optional .env
// file, without validating it. The maintenance commands only need the
// database settings.
func FromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:                getEnv("API_PORT", "5555"),
		Env:                    strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		SessionSecret:          []byte(getEnv("SESSION_SECRET", "")),
		SessionTTL:             time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "user"),
		DBPassword:             getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "algo_tracker"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:      getEnv("GOOGLE_REDIRECT_URL", "http://localhost:5555/google/auth"),
		FrontendURL:            getEnv("FRONTEND_URL", "/"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		AuthRateLimitPerSecond: getEnvAsInt("AUTH_RATE_LIMIT_PER_SECOND", 5),
		AuthRateLimitBurst:     getEnvAsInt("AUTH_RATE_LIMIT_BURST", 10),
		TrustProxyHeaders:      getEnvAsBool("TRUST_PROXY_HEADERS", false),
	}

	cfg.DBConnStr = getEnv("DATABASE_URL", "")
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}

	cfg.AllowedOrigins, cfg.InvalidOrigins = ParseOrigins(getEnv("ALLOWED_ORIGINS", strings.Join(defaultOrigins, ",")))
	return cfg
}

// ParseOrigins splits a comma separated origin list. Entries without an
// http:// or https:// scheme are returned separately; when nothing valid
// remains the localhost defaults are used.
func ParseOrigins(raw string) (valid, invalid []string) {
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			valid = append(valid, origin)
		} else {
			invalid = append(invalid, origin)
		}
	}
	if len(valid) == 0 {
		valid = append([]string(nil), defaultOrigins...)
	}
	return valid, invalid
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
