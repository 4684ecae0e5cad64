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
	"gopkg.in/yaml.v3"
)

// Storage backends accepted in StorageConfig.Type.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageDynamoDB = "dynamodb"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Client   ClientConfig   `yaml:"client"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int    `yaml:"port"`
	Host                   string `yaml:"host"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	return c.Host
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// StorageConfig selects the member storage backend
type StorageConfig struct {
	Type string `yaml:"type"` // memory, postgres, redis, dynamodb

	// Artificial latency per in-memory operation, for exercising clients.
	MemoryDelayMillis int `yaml:"memory_delay_ms"`
}

// MemoryDelay returns the in-memory store delay as a duration
func (c StorageConfig) MemoryDelay() time.Duration {
	return time.Duration(c.MemoryDelayMillis) * time.Millisecond
}

// PostgresConfig holds relational storage configuration
type PostgresConfig struct {
	DatabaseURL         string `yaml:"database_url"`
	Host                string `yaml:"host"`
	User                string `yaml:"user"`
	Password            string `yaml:"password"`
	Name                string `yaml:"name"`
	MaxOpenConns        int    `yaml:"max_open_conns"`
	MaxIdleConns        int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMins int    `yaml:"conn_max_lifetime_mins"`
	ConnectTimeoutSecs  int    `yaml:"connect_timeout_secs"`
}

// Configured reports whether a database URL or host was given.
func (c PostgresConfig) Configured() bool {
	return c.DatabaseURL != "" || c.Host != ""
}

// RedisConfig holds key-value storage configuration
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DynamoDBConfig holds document storage configuration
type DynamoDBConfig struct {
	Table         string `yaml:"table"`
	Region        string `yaml:"region"`
	Profile       string `yaml:"profile"` // Empty string uses default credential chain
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	CreateTable   bool   `yaml:"create_table"`
	TableWaitSecs int    `yaml:"table_wait_secs"`
}

// LogConfig holds structured logging configuration
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. It defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ClientConfig holds settings for the interactive CLI
type ClientConfig struct {
	APIURL         string `yaml:"api_url"`
	MaxRetries     *int   `yaml:"max_retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Retries returns the retry budget for idempotent requests. It defaults to
// 2 when unset; an explicit 0 disables retries.
func (c ClientConfig) Retries() int {
	if c.MaxRetries == nil {
		return 2
	}
	return *c.MaxRetries
}

// Timeout returns the per-request timeout as a duration
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageMemory
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 5
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = cfg.Postgres.MaxOpenConns
	}
	if cfg.Postgres.ConnMaxLifetimeMins == 0 {
		cfg.Postgres.ConnMaxLifetimeMins = 30
	}
	if cfg.Postgres.ConnectTimeoutSecs == 0 {
		cfg.Postgres.ConnectTimeoutSecs = 10
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "associados"
	}
	if cfg.DynamoDB.Table == "" {
		cfg.DynamoDB.Table = "associados"
	}
	if cfg.DynamoDB.Region == "" {
		cfg.DynamoDB.Region = "us-east-1"
	}
	if cfg.DynamoDB.TableWaitSecs == 0 {
		cfg.DynamoDB.TableWaitSecs = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Client.APIURL == "" {
		cfg.Client.APIURL = "http://localhost:3000/api"
	}
	if cfg.Client.TimeoutSeconds == 0 {
		cfg.Client.TimeoutSeconds = 10
	}
}

// Validate checks that the selected backend has what it needs.
func (cfg *Config) Validate() error {
	switch cfg.Storage.Type {
	case StorageMemory, StorageDynamoDB:
		return nil
	case StoragePostgres:
		if !cfg.Postgres.Configured() {
			return errors.New("config: postgres storage requires DATABASE_URL or DB_HOST")
		}
		return nil
	case StorageRedis:
		if cfg.Redis.URL == "" {
			return errors.New("config: redis storage requires REDIS_URL")
		}
		return nil
	default:
		return fmt.Errorf("config: unknown storage type %q", cfg.Storage.Type)
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars.
// A missing config file is not an error: defaults and env vars apply.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = strings.ToLower(v)
	}

	// DATABASE_URL wins over the discrete DB_* variables.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DatabaseURL = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Postgres.Name = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.DynamoDB.Table = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.DynamoDB.Region = v
	}
	if v := os.Getenv("DYNAMODB_ENDPOINT"); v != "" {
		cfg.DynamoDB.Endpoint = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_REDACT_PII"); v != "" {
		redact, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid LOG_REDACT_PII %q: %w", v, err)
		}
		cfg.Log.RedactPII = &redact
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ASSOCIADOS_API_URL"); v != "" {
		cfg.Client.APIURL = v
	}

	cfg.setDefaults()
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
