package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg := Load()
	assert.Empty(t, cfg.AuthSecret)
	assert.Empty(t, cfg.AdminPassword)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("UPLOAD_CHUNK_SIZE", "")

	cfg := Load()
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 500, cfg.UploadChunkSize)
	assert.Equal(t, 8*time.Hour, cfg.AccessTokenTTL())
	assert.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("UPLOAD_CHUNK_SIZE", "250")
	t.Setenv("CHUNK_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("PORT", "9090")

	cfg := Load()
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, 250, cfg.UploadChunkSize)
	assert.Equal(t, time.Minute, cfg.ChunkTimeout())
	assert.Equal(t, ":9090", cfg.Address())
}

func TestDatabaseURLSelectsPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/vendite")

	assert.Equal(t, BackendPostgres, Load().StoreBackend)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{StoreBackend: BackendPostgres}.Validate())
	assert.Error(t, Config{StoreBackend: BackendRedis}.Validate())
	assert.Error(t, Config{StoreBackend: "mongo"}.Validate())
	assert.NoError(t, Config{StoreBackend: BackendRedis, RedisAddr: "localhost:6379"}.Validate())
}
