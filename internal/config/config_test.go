package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadFromEnv reads so the host environment
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"SERVER_HOST", "PORT", "STORAGE_TYPE", "DATABASE_URL", "DB_HOST", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "REDIS_URL", "DYNAMODB_TABLE", "AWS_REGION",
		"DYNAMODB_ENDPOINT", "LOG_LEVEL", "LOG_REDACT_PII", "CORS_ALLOWED_ORIGINS",
		"ASSOCIADOS_API_URL", "ECS_CONTAINER_METADATA_URI", "AWS_EXECUTION_ENV",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

storage:
  type: "postgres"
  memory_delay_ms: 1500

postgres:
  database_url: "postgres://u:p@db/associados?sslmode=disable"
  max_open_conns: 10

redis:
  url: "redis://localhost:6379/0"

log:
  level: "debug"
  redact_pii: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, 1500*time.Millisecond, cfg.Storage.MemoryDelay())
	assert.Equal(t, "postgres://u:p@db/associados?sslmode=disable", cfg.Postgres.DatabaseURL)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 10, cfg.Postgres.MaxIdleConns)
	assert.Equal(t, "associados", cfg.Redis.KeyPrefix)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
	require.NoError(t, cfg.Validate())
}

func TestLoad_ZeroRetriesDisablesRetry(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("client:\n  max_retries: 0\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Client.Retries())
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnv_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "localhost:3000", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Zero(t, cfg.Storage.MemoryDelay())
	assert.Equal(t, 5, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, "associados", cfg.Redis.KeyPrefix)
	assert.True(t, cfg.Log.Redact())
	assert.Equal(t, "http://localhost:3000/api", cfg.Client.APIURL)
	assert.Equal(t, 2, cfg.Client.Retries())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("STORAGE_TYPE", "Postgres")
	t.Setenv("DB_HOST", "db.local")
	t.Setenv("DB_USER", "clube")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "associados")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("DYNAMODB_TABLE", "members")
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_REDACT_PII", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ASSOCIADOS_API_URL", "http://api:3000/api")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.Server.Addr())
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.True(t, cfg.Postgres.Configured())
	assert.Equal(t, "db.local", cfg.Postgres.Host)
	assert.Equal(t, "clube", cfg.Postgres.User)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
	assert.Equal(t, "associados", cfg.Postgres.Name)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "members", cfg.DynamoDB.Table)
	assert.Equal(t, "sa-east-1", cfg.DynamoDB.Region)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "http://api:3000/api", cfg.Client.APIURL)
}

func TestLoadFromEnv_DatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://x@y/z")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://x@y/z", cfg.Postgres.DatabaseURL)
	assert.True(t, cfg.Postgres.Configured())
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")

	_, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestServerConfig_GetHost_Container(t *testing.T) {
	clearEnv(t)
	t.Setenv("ECS_CONTAINER_METADATA_URI", "http://169.254.170.2/v4")

	assert.Equal(t, "0.0.0.0", ServerConfig{Host: "localhost"}.GetHost())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	cfg.Storage.Type = StoragePostgres
	assert.Error(t, cfg.Validate())

	cfg.Storage.Type = StorageRedis
	assert.Error(t, cfg.Validate())
	cfg.Redis.URL = "redis://localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Type = "sqlite"
	assert.Error(t, cfg.Validate())
}
