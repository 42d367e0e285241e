package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// Postgres
	DBURL        string
	DBMaxConns   int32
	DBAutoSchema bool

	// Auth
	JWTSecret   string
	JWTTTLHours int

	// Demo mode swaps Postgres for a local JSON file.
	DemoMode     bool
	DemoDataPath string

	// Redis is optional, only used to share rate limit counters.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitAuthPerMin int
	RateLimitAPIPerMin  int

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	OTelEndpoint string
}

const devJWTSecret = "supersecret"

func Load() Config {
	// .env is optional, real env vars always win.
	_ = godotenv.Load()

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		dbURL = buildDBURL()
	}

	return Config{
		Env:                 getEnv("APP_ENV", "dev"),
		Port:                getEnvInt("PORT", 8080),
		DBURL:               dbURL,
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 5)),
		DBAutoSchema:        getEnvBool("DB_AUTO_SCHEMA", false),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTTTLHours:         getEnvInt("JWT_TTL_HOURS", 7*24),
		DemoMode:            getEnvBool("DEMO_MODE", false),
		DemoDataPath:        getEnv("DEMO_DATA_PATH", "demo-data.json"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RateLimitAuthPerMin: getEnvInt("RATE_LIMIT_AUTH_PER_MIN", 20),
		RateLimitAPIPerMin:  getEnvInt("RATE_LIMIT_API_PER_MIN", 300),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		OTelEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate fills dev-only defaults and rejects configs that must not boot.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env == "prod" {
			return errors.New("JWT_SECRET is required when APP_ENV=prod")
		}
		c.JWTSecret = devJWTSecret
	}

	if c.JWTTTLHours <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}

	if !c.DemoMode && c.DBURL == "" {
		return errors.New("DATABASE_URL is required unless DEMO_MODE is enabled")
	}

	if c.DemoMode && c.DemoDataPath == "" {
		return errors.New("DEMO_DATA_PATH must not be empty in demo mode")
	}

	return nil
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "vita")
	pass := getEnv("DB_PASSWORD", "vita")
	name := getEnv("DB_NAME", "vita")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

// accepts the same spellings the web client used: true, 1, yes.
func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}

	switch v {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
