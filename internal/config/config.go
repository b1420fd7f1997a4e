package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Holiday    HolidayConfig
	Redis      RedisConfig
	HTTP       HTTPConfig
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrateOnStart bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// AttendanceConfig holds ledger and wage settings.
type AttendanceConfig struct {
	Location          *time.Location
	DefaultHourlyRate decimal.Decimal
	OpenBreakPolicy   string
	StaleAfter        time.Duration
}

type HolidayConfig struct {
	APIURL   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RedisConfig is optional; an empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type HTTPConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// Load reads .env when present and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	migrate, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIGRATE_ON_START: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           dbPort,
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		Name:           getEnv("DB_NAME", "attendance"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MigrateOnStart: migrate,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8000"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "24h"),
	}

	// Attendance configuration
	loc, err := time.LoadLocation(getEnv("ORG_TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORG_TIMEZONE: %w", err)
	}
	rate, err := decimal.NewFromString(getEnv("DEFAULT_HOURLY_RATE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_HOURLY_RATE: %w", err)
	}
	staleAfter, err := time.ParseDuration(getEnv("STALE_SHIFT_AFTER", "16h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STALE_SHIFT_AFTER: %w", err)
	}

	config.Attendance = AttendanceConfig{
		Location:          loc,
		DefaultHourlyRate: rate,
		OpenBreakPolicy:   strings.ToLower(getEnv("OPEN_BREAK_ON_CLOCK_OUT", "reject")),
		StaleAfter:        staleAfter,
	}

	// Holiday configuration
	holidayTimeout, err := time.ParseDuration(getEnv("HOLIDAY_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAY_TIMEOUT: %w", err)
	}
	holidayTTL, err := time.ParseDuration(getEnv("HOLIDAY_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAY_CACHE_TTL: %w", err)
	}

	config.Holiday = HolidayConfig{
		APIURL:   getEnv("HOLIDAY_API_URL", "https://holidays-jp.github.io/api/v1/{year}/date.json"),
		Timeout:  holidayTimeout,
		CacheTTL: holidayTTL,
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// HTTP configuration
	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	config.HTTP = HTTPConfig{
		RateLimitPerMinute: rateLimit,
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Attendance.DefaultHourlyRate.IsNegative() {
		return fmt.Errorf("DEFAULT_HOURLY_RATE must not be negative")
	}
	switch c.Attendance.OpenBreakPolicy {
	case "reject", "close":
	default:
		return fmt.Errorf("OPEN_BREAK_ON_CLOCK_OUT must be reject or close")
	}
	if c.Attendance.StaleAfter <= 0 {
		return fmt.Errorf("STALE_SHIFT_AFTER must be positive")
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
