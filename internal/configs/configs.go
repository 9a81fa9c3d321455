package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RedisAddr              string
	RedisOutboxKey         string
	OutboxWorkers          int
	RateLimit              int
	ShutdownTimeoutSeconds int
	GatewayTimeoutSeconds  int
	PaymentGatewayURL      string
	ReceiptServiceURL      string
	JWTSecret              string
	AdminSubjects          []string
	SweepSchedule          string
	LogLevel               string
	LogFile                string
	FeeBasePercentage      float64
	MinFeeUSD              float64
	MaxFeeUSD              float64
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "")
	redisPort := getEnv("REDIS_PORT", "6379")

	redisAddr := ""
	if redisHost != "" {
		redisAddr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "taskmarket.db"),
		RedisAddr:              redisAddr,
		RedisOutboxKey:         getEnv("REDIS_OUTBOX_KEY", "taskmarket_outbox"),
		OutboxWorkers:          getEnvAsInt("OUTBOX_WORKERS", 3),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
		GatewayTimeoutSeconds:  getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10),
		PaymentGatewayURL:      getEnv("PAYMENT_GATEWAY_URL", ""),
		ReceiptServiceURL:      getEnv("RECEIPT_SERVICE_URL", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		AdminSubjects:          getEnvAsList("ADMIN_SUBJECTS"),
		SweepSchedule:          getEnv("SWEEP_SCHEDULE", "*/5 * * * *"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFile:                getEnv("LOG_FILE", ""),
		FeeBasePercentage:      getEnvAsFloat("FEE_BASE_PERCENTAGE", 0.10),
		MinFeeUSD:              getEnvAsFloat("FEE_MIN_USD", 5),
		MaxFeeUSD:              getEnvAsFloat("FEE_MAX_USD", 50),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal("APP_URL must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.OutboxWorkers <= 0 {
		log.Fatal("OUTBOX_WORKERS must be greater than 0")
	}
	if cfg.FeeBasePercentage <= 0 || cfg.FeeBasePercentage >= 1 {
		log.Fatal("FEE_BASE_PERCENTAGE must be between 0 and 1")
	}
	if cfg.MinFeeUSD < 0 || cfg.MaxFeeUSD < cfg.MinFeeUSD {
		log.Fatal("fee bounds must satisfy 0 <= FEE_MIN_USD <= FEE_MAX_USD")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("invalid numeric value for %s", key)
		}
		return f
	}
	return defaultVal
}
