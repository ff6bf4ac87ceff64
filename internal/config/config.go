package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port    string
		GinMode string
	}

	Log struct {
		Level string
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}

	Storage struct {
		Type  string
		File  string
		Scope string
	}

	Redis struct {
		URL       string
		KeyPrefix string
	}

	ObjectStore struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
		Archive   bool
	}

	Sync struct {
		QuietPeriod time.Duration
		SyncedHold  time.Duration
		SaveTimeout time.Duration
	}

	Election struct {
		DefaultWindow     time.Duration
		CountdownInterval time.Duration
	}

	SuperAdmin struct {
		ID       string
		Password string
	}

	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "urna")
	config.DB.Password = getEnv("DB_PASSWORD", "urna_password")
	config.DB.Name = getEnv("DB_NAME", "urna_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")

	config.Log.Level = getEnv("LOG_LEVEL", "info")

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	config.Storage.Type = getEnv("STORAGE_TYPE", "file")
	config.Storage.File = getEnv("STATE_FILE", "./data/urna-state.json")
	config.Storage.Scope = getEnv("STATE_SCOPE", "default")

	config.Redis.URL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	config.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", "urna:state:")

	config.ObjectStore.Endpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.ObjectStore.AccessKey = getEnv("MINIO_ACCESS_KEY", "minioadmin")
	config.ObjectStore.SecretKey = getEnv("MINIO_SECRET_KEY", "minioadmin")
	config.ObjectStore.Bucket = getEnv("MINIO_BUCKET", "urna")
	config.ObjectStore.UseSSL = getEnvAsBool("MINIO_USE_SSL", false)
	config.ObjectStore.Archive = getEnvAsBool("BACKUP_ARCHIVE", false)

	config.Sync.QuietPeriod = getEnvAsDuration("SYNC_QUIET_PERIOD", 1500*time.Millisecond)
	config.Sync.SyncedHold = getEnvAsDuration("SYNC_SYNCED_HOLD", 2*time.Second)
	config.Sync.SaveTimeout = getEnvAsDuration("SYNC_SAVE_TIMEOUT", 10*time.Second)

	config.Election.DefaultWindow = getEnvAsDuration("ELECTION_DEFAULT_WINDOW", 8*time.Hour)
	config.Election.CountdownInterval = getEnvAsDuration("COUNTDOWN_INTERVAL", time.Second)

	config.SuperAdmin.ID = getEnv("SUPERADMIN_ID", "superadmin")
	config.SuperAdmin.Password = getEnv("SUPERADMIN_PASSWORD", "superadmin123")

	config.Auth.JWTSecret = getEnv("JWT_SECRET", "urna-dev-secret")
	config.Auth.TokenTTL = getEnvAsDuration("TOKEN_TTL", 12*time.Hour)

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// AllowedOrigins splits the CORS origin list
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORS.AllowOrigins)
}

// AllowedMethods splits the CORS method list
func (c *Config) AllowedMethods() []string {
	return splitList(c.CORS.AllowMethods)
}

// AllowedHeaders splits the CORS header list
func (c *Config) AllowedHeaders() []string {
	return splitList(c.CORS.AllowHeaders)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("1500ms", "8h") or plain milliseconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
