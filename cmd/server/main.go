package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"vendite/backend/internal/cache"
	"vendite/backend/internal/config"
	"vendite/backend/internal/httpapi"
	"vendite/backend/internal/logger"
	"vendite/backend/internal/service"
	"vendite/backend/internal/store"
	"vendite/backend/internal/store/memory"
	pgstore "vendite/backend/internal/store/postgres"
	redisstore "vendite/backend/internal/store/redis"
	sqlitestore "vendite/backend/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid security configuration")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("store unavailable")
	}
	closers := []func() error{closeStore}
	log.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	users := store.NewUsers(kv)
	created, err := users.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin account")
	}
	if created {
		log.Info().Str("user", cfg.AdminUsername).Msg("admin account created")
	} else if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD not set; no admin account was seeded")
	}

	var views cache.ViewCache = cache.NewLocalViewCache(cfg.ViewCacheTTL())
	if cfg.RedisAddr != "" {
		redisViews := cache.NewRedisViewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisViews.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process view cache")
		} else {
			views = redisViews
			closers = append(closers, redisViews.Close)
			log.Info().Msg("view cache: redis")
		}
	}

	svc := service.New(kv, views, cfg.ViewCacheTTL(), log)
	auth := httpapi.NewAuthManager(ctx, cfg.AuthSecret, cfg.AccessTokenTTL(), users)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin:     cfg.AllowedOrigin,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads and bulk chunks need more than the usual request budget.
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("vendite backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	closeAll(log, closers)
	log.Info().Msg("server stopped")
}

type kvCloser interface {
	store.KV
	Close() error
}

func openStore(ctx context.Context, cfg config.Config) (store.KV, func() error, error) {
	var (
		kv  kvCloser
		err error
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		// No in-memory fallback: DATABASE_URL means the data must survive restarts.
		kv, err = pgstore.New(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		kv, err = sqlitestore.New(ctx, cfg.SQLitePath)
	case config.BackendRedis:
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "vendite")
		if err = rs.Ping(ctx); err != nil {
			_ = rs.Close()
		} else {
			kv = rs
		}
	default:
		kv = memory.New()
	}
	if err != nil {
		return nil, nil, err
	}
	return kv, kv.Close, nil
}

func closeAll(log zerolog.Logger, closers []func() error) {
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AdminPassword != "" {
		if err := validatePasswordStrength(cfg.AdminPassword); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD is too weak: %w", err)
		}
	}
	return nil
}

// validatePasswordStrength asks for 12+ characters mixing letters and digits
// and rejects a handful of well-known passwords.
func validatePasswordStrength(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("at least 12 characters required")
	}
	known := map[string]bool{
		"password1234": true, "admin1234567": true, "qwerty123456": true,
		"123456789abc": true, "vendite12345": true, "changeme1234": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("letters and digits required")
	}
	return nil
}
