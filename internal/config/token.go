package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type TokenConfig struct {
	InitialGrantMember    decimal.Decimal
	InitialGrantAdmin     decimal.Decimal
	DefaultPageSize       int
	MaxPageSize           int
	MaxDividendRecipients int
	RequestCodeLength     int
	RequestCodeTimeout    time.Duration
	MaxCodesPerUser       int
	RateLimitWindow       time.Duration
}

func LoadTokenConfig() *TokenConfig {
	return &TokenConfig{
		InitialGrantMember:    getEnvAsDecimal("TOKEN_INITIAL_GRANT_MEMBER", decimal.NewFromInt(100)),
		InitialGrantAdmin:     getEnvAsDecimal("TOKEN_INITIAL_GRANT_ADMIN", decimal.NewFromInt(500)),
		DefaultPageSize:       getEnvAsInt("TOKEN_DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:           getEnvAsInt("TOKEN_MAX_PAGE_SIZE", 100),
		MaxDividendRecipients: getEnvAsInt("TOKEN_MAX_DIVIDEND_RECIPIENTS", 100),
		RequestCodeLength:     getEnvAsInt("TOKEN_REQUEST_CODE_LENGTH", 8),
		RequestCodeTimeout:    getEnvAsDuration("TOKEN_REQUEST_CODE_TIMEOUT", 5*time.Minute),
		MaxCodesPerUser:       getEnvAsInt("TOKEN_MAX_CODES_PER_USER", 5),
		RateLimitWindow:       getEnvAsDuration("TOKEN_RATE_LIMIT_WINDOW", 1*time.Hour),
	}
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return defaultVal
}
