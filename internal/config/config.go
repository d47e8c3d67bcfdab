package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	SLA          SLAConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SLAConfig tunes the SLA engine.
type SLAConfig struct {
	TimeZone                 string
	OpenHour                 int
	CloseHour                int
	Holidays                 []time.Time
	AtRiskFraction           float64
	ReconcileIntervalSeconds int
	ReconcileBatchSize       int
	StatsCacheSeconds        int
	LockTTLSeconds           int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	atRisk, err := strconv.ParseFloat(getEnv("SLA_AT_RISK_FRACTION", "0.25"), 64)
	if err != nil || atRisk <= 0 || atRisk > 1 {
		return nil, fmt.Errorf("invalid SLA_AT_RISK_FRACTION %q: must be in (0, 1]", os.Getenv("SLA_AT_RISK_FRACTION"))
	}

	holidays, err := parseDates(os.Getenv("SLA_HOLIDAYS"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLA_HOLIDAYS: %w", err)
	}

	sla := SLAConfig{
		TimeZone:                 getEnv("SLA_BUSINESS_TIMEZONE", "Local"),
		OpenHour:                 getEnvAsInt("SLA_BUSINESS_OPEN_HOUR", 9),
		CloseHour:                getEnvAsInt("SLA_BUSINESS_CLOSE_HOUR", 17),
		Holidays:                 holidays,
		AtRiskFraction:           atRisk,
		ReconcileIntervalSeconds: getEnvAsInt("SLA_RECONCILE_INTERVAL_SECONDS", 300),
		ReconcileBatchSize:       getEnvAsInt("SLA_RECONCILE_BATCH_SIZE", 200),
		StatsCacheSeconds:        getEnvAsInt("SLA_STATS_CACHE_SECONDS", 30),
		LockTTLSeconds:           getEnvAsInt("SLA_LOCK_TTL_SECONDS", 120),
	}
	if sla.OpenHour < 0 || sla.CloseHour > 24 || sla.OpenHour >= sla.CloseHour {
		return nil, fmt.Errorf("invalid business hours %d-%d", sla.OpenHour, sla.CloseHour)
	}
	if _, err := sla.Location(); err != nil {
		return nil, fmt.Errorf("invalid SLA_BUSINESS_TIMEZONE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SLA: sla,
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Location resolves the business-hours time zone.
func (s SLAConfig) Location() (*time.Location, error) {
	if s.TimeZone == "" || s.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.TimeZone)
}

// ReconcileInterval returns the period between reconciliation passes.
func (s SLAConfig) ReconcileInterval() time.Duration {
	return secondsOr(s.ReconcileIntervalSeconds, 5*time.Minute)
}

// StatsCacheTTL returns how long stats stay cached; zero disables caching.
func (s SLAConfig) StatsCacheTTL() time.Duration {
	if s.StatsCacheSeconds <= 0 {
		return 0
	}
	return time.Duration(s.StatsCacheSeconds) * time.Second
}

// LockTTL returns the lifetime of the reconciliation lock.
func (s SLAConfig) LockTTL() time.Duration {
	return secondsOr(s.LockTTLSeconds, 2*time.Minute)
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func parseDates(raw string) ([]time.Time, error) {
	var out []time.Time
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := time.Parse(time.DateOnly, part)
		if err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
