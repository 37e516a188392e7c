package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Feeds    FeedConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// CacheConfig holds aggregation cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// DatabaseConfig holds PostgreSQL configuration for the content repository
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// AuthConfig holds admin token configuration. The refresh endpoint and the
// cache bypass flag are only honored for requests bearing a valid admin JWT.
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// FeedConfig holds the optional syndicated commemoration feeds merged into
// aggregation. Empty means the feed source is disabled.
type FeedConfig struct {
	URLs []string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}

	httpAddr := flag.String("http", ":8080", "HTTP server address")
	cacheTTL := flag.Duration("cache-ttl", time.Hour, "Aggregation cache TTL")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "timeline_content", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")

	flag.Parse()

	applyEnvOverrides(httpAddr, cacheTTL, cacheBackend, redisAddr, logLevel, dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	cfg.Server = ServerConfig{
		HTTPAddr: *httpAddr,
	}

	cfg.Cache = CacheConfig{
		Backend:   *cacheBackend,
		TTL:       *cacheTTL,
		RedisAddr: *redisAddr,
	}

	cfg.Database = DatabaseConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
	}

	cfg.Auth = AuthConfig{
		JWTSecret:   getEnvOrDefault("AUTH_JWT_SECRET", "change-me-in-production"),
		JWTIssuer:   getEnvOrDefault("AUTH_JWT_ISSUER", "timeline"),
		JWTAudience: getEnvOrDefault("AUTH_JWT_AUDIENCE", "timeline-admin"),
	}

	cfg.Feeds = loadFeedConfig()

	return cfg
}

func loadFeedConfig() FeedConfig {
	raw := os.Getenv("TIMELINE_FEEDS")
	if raw == "" {
		return FeedConfig{}
	}

	var urls []string
	for _, u := range strings.Split(raw, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}
	return FeedConfig{URLs: urls}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func applyEnvOverrides(
	httpAddr *string,
	cacheTTL *time.Duration,
	cacheBackend *string,
	redisAddr *string,
	logLevel *string,
	dbHost *string,
	dbPort *int,
	dbUser *string,
	dbPassword *string,
	dbName *string,
	dbSSLMode *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		*dbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*dbPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*dbUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*dbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*dbName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		*dbSSLMode = v
	}
}
