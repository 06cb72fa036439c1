package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/config"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "short"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, AdminPassword: "admin"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, AdminPassword: "Password1234"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, AdminPassword: "onlyletterslong"}))
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	assert.NoError(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, AdminPassword: "Ferraris-2025-negozio"}))
	assert.NoError(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret}))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	kv, closeFn, err := openStore(ctx, config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "sales/a", []byte(`{}`)))
	assert.NoError(t, closeFn())

	kv, closeFn, err = openStore(ctx, config.Config{
		StoreBackend: config.BackendSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "vendite.db"),
	})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "sales/a", []byte(`{}`)))
	assert.NoError(t, closeFn())
}
