// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/draff227/bslc/internal/core/domain"
)

const (
	RoutesSourceBuiltin = "builtin"
	RoutesSourceSQLite  = "sqlite"
	RoutesSourceRedis   = "redis"
)

type Config struct {
	Server      ServerConfig
	Gate        GateConfig
	RateLimiter RateLimiterConfig
	Pricing     domain.PricingRules
	Routes      RoutesConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port string
}

type GateConfig struct {
	AllowedOrigins []string
}

type RateLimiterConfig struct {
	Rule              domain.RateLimitRule
	CleanupInterval   time.Duration
	ExemptIdentifiers []string
}

type RoutesConfig struct {
	Source     string
	SQLitePath string
	Redis      RedisConfig
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	pricing, err := buildPricingRules()
	if err != nil {
		return Config{}, err
	}

	routesConfig, err := buildRoutesConfig()
	if err != nil {
		return Config{}, err
	}

	logConfig := LogConfig{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
	if logConfig.Format != "json" && logConfig.Format != "console" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT: %s", logConfig.Format)
	}

	return Config{
		Server: ServerConfig{Port: getEnv("SERVER_PORT", "8080")},
		Gate: GateConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		RateLimiter: rateLimiterConfig,
		Pricing:     pricing,
		Routes:      routesConfig,
		Log:         logConfig,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	requests, err := getPositiveInt("RATE_LIMIT_REQUESTS", "10")
	if err != nil {
		return RateLimiterConfig{}, err
	}
	windowSeconds, err := getPositiveInt("RATE_LIMIT_WINDOW_SECONDS", "60")
	if err != nil {
		return RateLimiterConfig{}, err
	}
	cleanupSeconds, err := getPositiveInt("RATE_LIMIT_CLEANUP_INTERVAL_SECONDS", "60")
	if err != nil {
		return RateLimiterConfig{}, err
	}

	return RateLimiterConfig{
		Rule: domain.RateLimitRule{
			Requests: requests,
			Window:   time.Duration(windowSeconds) * time.Second,
		},
		CleanupInterval:   time.Duration(cleanupSeconds) * time.Second,
		ExemptIdentifiers: splitCSV(os.Getenv("RATE_LIMIT_EXEMPT_IDENTIFIERS")),
	}, nil
}

func buildPricingRules() (domain.PricingRules, error) {
	percentage, err := strconv.ParseFloat(getEnv("PRICING_COLLATERAL_PERCENTAGE", "0.01"), 64)
	if err != nil {
		return domain.PricingRules{}, fmt.Errorf("invalid PRICING_COLLATERAL_PERCENTAGE: %w", err)
	}
	maxVolume, err := strconv.ParseFloat(getEnv("PRICING_MAX_VOLUME", "360000"), 64)
	if err != nil {
		return domain.PricingRules{}, fmt.Errorf("invalid PRICING_MAX_VOLUME: %w", err)
	}
	maxCollateral, err := strconv.ParseFloat(getEnv("PRICING_MAX_COLLATERAL", "10000000000"), 64)
	if err != nil {
		return domain.PricingRules{}, fmt.Errorf("invalid PRICING_MAX_COLLATERAL: %w", err)
	}

	return domain.PricingRules{
		CollateralPercentage: percentage,
		MaxVolume:            maxVolume,
		MaxCollateral:        maxCollateral,
	}, nil
}

func buildRoutesConfig() (RoutesConfig, error) {
	source := strings.ToLower(getEnv("ROUTES_SOURCE", RoutesSourceBuiltin))
	switch source {
	case RoutesSourceBuiltin, RoutesSourceSQLite, RoutesSourceRedis:
	default:
		return RoutesConfig{}, fmt.Errorf("unsupported ROUTES_SOURCE: %s", source)
	}

	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RoutesConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RoutesConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RoutesConfig{
		Source:     source,
		SQLitePath: getEnv("ROUTES_SQLITE_PATH", "routes.db"),
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      port,
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        db,
			KeyPrefix: getEnv("ROUTES_REDIS_KEY_PREFIX", "bslc:"),
		},
	}, nil
}

func getPositiveInt(key, fallback string) (int, error) {
	value, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
