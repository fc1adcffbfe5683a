package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	DBDSN          string
	DBMaxOpenConns int
	CommitTimeout  time.Duration
	CORSOrigins    []string
	JWTSecret      string
	RedisAddr      string
	KafkaBrokers   []string
	SalesTopic     string
	OTLPEndpoint   string
	ServiceName    string
	LogLevel       string
}

const defaultCORSOrigin = "http://localhost:5173"

var ErrMissingDSN = errors.New("DB_DSN is not set")

// Load reads the process environment. Call godotenv.Load first if a .env file should apply.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DBDSN:          os.Getenv("DB_DSN"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
		CommitTimeout:  getEnvAsDuration("COMMIT_TIMEOUT", 10*time.Second),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", defaultCORSOrigin)),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		SalesTopic:     getEnv("SALES_TOPIC", "pos.sale.completed"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:    getEnv("SERVICE_NAME", "pos-backoffice"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	// cors rejects an empty allow list at startup
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{defaultCORSOrigin}
	}
	if cfg.DBDSN == "" {
		return cfg, ErrMissingDSN
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
