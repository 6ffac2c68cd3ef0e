package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Development fallbacks. Load refuses them when ENV=production.
const (
	DevAPIToken  = "pulse_dev_token"
	DevSecretKey = "pulse-insecure-dev-key-change-in-production"
	DevJWTSecret = "pulse-insecure-dev-jwt-secret"
)

// Database drivers understood by database.Connect.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
// It is loaded once at startup and handed to the components that need it.
type Config struct {
	Port string
	Env  string

	// APIToken is the shared token client apps present on the read API.
	APIToken string
	// SecretKey is the master secret the API key cipher is derived from.
	// Changing it makes every stored API key value unreadable.
	SecretKey string
	JWTSecret string
	JWTTTL    time.Duration

	// CORSOrigins lists admin console origins; empty means localhost only.
	CORSOrigins []string

	// Warnings collects non-fatal issues (dev defaults in use) for the caller to log.
	Warnings []string

	DB         DatabaseConfig
	Redis      RedisConfig
	S3         S3Config
	AWS        AWSConfig
	Moderation ModerationConfig
	Worker     WorkerConfig
}

// DatabaseConfig contains connection parameters for PostgreSQL or SQLite.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// RedisConfig contains Redis connection parameters. An empty Host disables the cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a Redis host has been configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// S3Config contains the bucket used for message images.
type S3Config struct {
	Region          string
	Bucket          string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether uploads can be signed.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// AWSConfig contains AWS general configuration
type AWSConfig struct {
	AccessKeyID       string
	SecretAccessKey   string
	RekognitionRegion string
}

// ModerationConfig controls Rekognition image moderation on uploads.
type ModerationConfig struct {
	Enabled       bool
	MinConfidence float64
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	KeyExpiryCheckInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Secrets
	cfg.APIToken = getEnv("API_TOKEN", "")
	cfg.SecretKey = getEnv("SECRET_KEY", "")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	cfg.CORSOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", ""))

	// Database
	cfg.DB = DatabaseConfig{
		Driver:     getEnv("DB_DRIVER", DriverPostgres),
		Host:       getEnv("DB_HOST", ""),
		Port:       getEnv("DB_PORT", "5432"),
		User:       getEnv("DB_USER", ""),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", "pulse_db"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "pulse.db"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// S3 (message images)
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "eu-west-2"),
		Bucket:          getEnv("S3_BUCKET", ""),
		PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	cfg.AWS = AWSConfig{
		AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RekognitionRegion: getEnv("AWS_REKOGNITION_REGION", "eu-west-1"),
	}

	cfg.Moderation = ModerationConfig{
		Enabled:       getEnvBool("MODERATION_ENABLED", false),
		MinConfidence: getEnvFloat("MODERATION_MIN_CONFIDENCE", 80),
	}

	var err error
	if cfg.Redis.CacheTTL, err = parseDurationEnv("CACHE_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.Worker.KeyExpiryCheckInterval, err = parseDurationEnv("KEY_EXPIRY_CHECK_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid KEY_EXPIRY_CHECK_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be set when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: use %q or %q", c.DB.Driver, DriverPostgres, DriverSQLite)
	}

	secrets := []struct {
		name   string
		value  *string
		devVal string
	}{
		{"API_TOKEN", &c.APIToken, DevAPIToken},
		{"SECRET_KEY", &c.SecretKey, DevSecretKey},
		{"JWT_SECRET", &c.JWTSecret, DevJWTSecret},
	}
	for _, s := range secrets {
		if c.IsProduction() {
			if *s.value == "" || *s.value == s.devVal {
				return fmt.Errorf("%s must be set to a non-default value in production", s.name)
			}
			continue
		}
		if *s.value == "" {
			*s.value = s.devVal
			c.Warnings = append(c.Warnings, s.name+" not set, using insecure development default")
		}
	}

	if c.Moderation.MinConfidence < 0 || c.Moderation.MinConfidence > 100 {
		return errors.New("MODERATION_MIN_CONFIDENCE must be between 0 and 100")
	}
	if c.Worker.KeyExpiryCheckInterval <= 0 {
		return errors.New("KEY_EXPIRY_CHECK_INTERVAL must be greater than zero")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
