package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Env                   string
	LogLevel              string
	Port                  string
	AllowedOrigin         string
	StoreBackend          string
	DatabaseURL           string
	SQLitePath            string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	AdminUsername         string
	AdminPassword         string
	MaxUploadBytes        int64
	ViewCacheTTLSeconds   int
	UploadChunkSize       int
	ChunkTimeoutSeconds   int
	RequestsPerSecond     float64
}

// Load reads an optional .env file from the working directory; environment
// variables take precedence over it.
func Load() Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	cfg := Config{
		Env:                   getString(v, "APP_ENV", "development"),
		LogLevel:              getString(v, "LOG_LEVEL", "info"),
		Port:                  getString(v, "PORT", "8080"),
		AllowedOrigin:         getString(v, "ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           getString(v, "DATABASE_URL", ""),
		SQLitePath:            getString(v, "SQLITE_PATH", "vendite.db"),
		RedisAddr:             getString(v, "REDIS_ADDR", ""),
		RedisPassword:         getString(v, "REDIS_PASSWORD", ""),
		RedisDB:               getInt(v, "REDIS_DB", 0),
		AuthSecret:            strings.TrimSpace(getString(v, "AUTH_SECRET", "")),
		AccessTokenTTLMinutes: positive(getInt(v, "ACCESS_TOKEN_TTL_MINUTES", 480), 480),
		AdminUsername:         strings.TrimSpace(getString(v, "ADMIN_USERNAME", "admin")),
		AdminPassword:         getString(v, "ADMIN_PASSWORD", ""),
		MaxUploadBytes:        int64(positive(getInt(v, "MAX_UPLOAD_BYTES", 20<<20), 20<<20)),
		ViewCacheTTLSeconds:   positive(getInt(v, "VIEW_CACHE_TTL_SECONDS", 60), 60),
		UploadChunkSize:       positive(getInt(v, "UPLOAD_CHUNK_SIZE", 500), 500),
		ChunkTimeoutSeconds:   positive(getInt(v, "CHUNK_TIMEOUT_SECONDS", 60), 60),
		RequestsPerSecond:     getFloat(v, "REQUESTS_PER_SECOND", 20),
	}
	cfg.StoreBackend = strings.ToLower(getString(v, "STORE_BACKEND", defaultBackend(cfg)))
	return cfg
}

// defaultBackend keeps the historical behaviour of switching to postgres
// whenever DATABASE_URL is present.
func defaultBackend(cfg Config) string {
	if cfg.DatabaseURL != "" {
		return BackendPostgres
	}
	return BackendMemory
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) ViewCacheTTL() time.Duration {
	return time.Duration(c.ViewCacheTTLSeconds) * time.Second
}

func (c Config) ChunkTimeout() time.Duration {
	return time.Duration(c.ChunkTimeoutSeconds) * time.Second
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return n
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func positive(n, fallback int) int {
	if n < 1 {
		return fallback
	}
	return n
}
