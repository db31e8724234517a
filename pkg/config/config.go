package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Booking    BookingConfig
	Lock       LockConfig
	Redis      RedisConfig
	Cache      CacheConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
	LogLevel   string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// StorageConfig выбирает реализацию хранилища бронирований.
type StorageConfig struct {
	Backend string // postgres | memory
}

// BookingConfig описывает часы работы переговорной.
type BookingConfig struct {
	OpenTime    valueobject.ClockTime
	CloseTime    valueobject.ClockTime
	LockTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockConfig выбирает механизм сериализации операций по дате.
type LockConfig struct {
	Backend       string // memory | redis | postgres
	TTL           time.Duration
	RetryInterval time.Duration
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type CacheConfig struct {
	Enabled   bool
	TTL       time.Duration
	KeyPrefix string
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	StreamName    string
	SubjectPrefix string
}

type CloudWatchConfig struct {
	MetricsEnabled       bool
	MetricsNamespace     string
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	MetricsDimensions    map[string]string
	MetricsBufferSize    int
	MetricsFlushInterval time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

// MetricsConfig управляет экспортом Prometheus-метрик на /metrics.
type MetricsConfig struct {
	PrometheusEnabled bool
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	// TrustedProxies - адреса прокси, чьим X-Forwarded-For и X-Real-IP можно верить
	TrustedProxies []netip.Prefix
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	openTime, err := valueobject.ParseClockTime(getEnv("BOOKING_OPEN_TIME", "07:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_OPEN_TIME: %w", err)
	}

	closeTime, err := valueobject.ParseClockTime(getEnv("BOOKING_CLOSE_TIME", "17:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_CLOSE_TIME: %w", err)
	}

	if !openTime.Before(closeTime) {
		return nil, fmt.Errorf("BOOKING_OPEN_TIME (%s) must be before BOOKING_CLOSE_TIME (%s)", openTime, closeTime)
	}

	lockTimeout, err := parseDuration(getEnv("BOOKING_LOCK_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_LOCK_TIMEOUT: %w", err)
	}

	writeTimeout, err := parseDuration(getEnv("BOOKING_WRITE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_WRITE_TIMEOUT: %w", err)
	}

	lockTTL, err := parseDuration(getEnv("LOCK_TTL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}

	lockRetry, err := parseDuration(getEnv("LOCK_RETRY_INTERVAL", "25ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_RETRY_INTERVAL: %w", err)
	}

	cacheTTL, err := parseDuration(getEnv("CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	flushInterval, err := parseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	trustedProxies, err := parsePrefixes(splitCSV(getEnv("RATE_LIMIT_TRUSTED_PROXIES", "")))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_TRUSTED_PROXIES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "3001"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "bookingdb"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "postgres")),
		},
		Booking: BookingConfig{
			OpenTime:     openTime,
			CloseTime:    closeTime,
			LockTimeout:  lockTimeout,
			WriteTimeout: writeTimeout,
		},
		Lock: LockConfig{
			Backend:       strings.ToLower(getEnv("LOCK_BACKEND", "memory")),
			TTL:           lockTTL,
			RetryInterval: lockRetry,
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   getEnvBool("CACHE_ENABLED", false),
			TTL:       cacheTTL,
			KeyPrefix: getEnv("CACHE_KEY_PREFIX", "calendar:"),
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			StreamName:    getEnv("NATS_STREAM", "RESERVATIONS"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "calendar.reservations"),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:       getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace:     getEnv("CLOUDWATCH_METRICS_NAMESPACE", "Calendar/Booking"),
			Region:               getEnv("AWS_REGION", "eu-north-1"),
			Endpoint:             getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MetricsDimensions:    parseDimensions(getEnv("CLOUDWATCH_METRICS_DIMENSIONS", "")),
			MetricsBufferSize:    100,
			MetricsFlushInterval: flushInterval,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:            rps,
			Burst:          burst,
			TrustedProxies: trustedProxies,
		},
		Metrics: MetricsConfig{
			PrometheusEnabled: getEnvBool("PROMETHEUS_ENABLED", true),
		},
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}

	switch cfg.Storage.Backend {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %q", cfg.Storage.Backend)
	}

	switch cfg.Lock.Backend {
	case "memory", "redis", "postgres":
	default:
		return nil, fmt.Errorf("unsupported LOCK_BACKEND: %q", cfg.Lock.Backend)
	}

	if cfg.Lock.Backend == "postgres" && cfg.Storage.Backend != "postgres" {
		return nil, fmt.Errorf("LOCK_BACKEND=postgres requires STORAGE_BACKEND=postgres")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// parseDimensions разбирает строку вида "Environment=prod,Room=main".
func parseDimensions(raw string) map[string]string {
	dims := make(map[string]string)
	for _, item := range splitCSV(raw) {
		key, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		dims[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return dims
}

// parsePrefixes принимает CIDR или одиночные адреса
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(items))
	for _, item := range items {
		if strings.Contains(item, "/") {
			prefix, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
