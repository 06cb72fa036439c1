package store

import (
	"context"
	"errors"
	"strings"

	"vendite/backend/internal/domain"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrExists     = errors.New("key already exists")
	ErrInvalidKey = errors.New("invalid key")
)

const (
	SalesPrefix     = "sales/"
	ReturnsPrefix   = "returns/"
	InventoryPrefix = "inventory/"
	UsersPrefix     = "users/"
	AuditPrefix     = "audit/"

	PaymentMappingsKey = "config/payment-mappings"
)

type Entry struct {
	Key   string
	Value []byte
}

// KV is the persistence contract. Values are opaque JSON documents; Scan
// returns entries ordered by key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, prefix string) ([]Entry, error)
}

// Creator is implemented by backends that can insert a key only when it is
// absent, returning ErrExists otherwise.
type Creator interface {
	Create(ctx context.Context, key string, value []byte) error
}

// Create inserts value under key unless the key is taken.
func Create(ctx context.Context, kv KV, key string, value []byte) error {
	if c, ok := kv.(Creator); ok {
		return c.Create(ctx, key, value)
	}
	if _, err := kv.Get(ctx, key); err == nil {
		return ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return kv.Set(ctx, key, value)
}

// Prefix returns the key namespace of a record kind.
func Prefix(kind domain.RecordKind) string {
	switch kind {
	case domain.KindSales:
		return SalesPrefix
	case domain.KindReturns:
		return ReturnsPrefix
	case domain.KindInventory:
		return InventoryPrefix
	}
	return ""
}

func RecordKey(kind domain.RecordKind, id string) (string, error) {
	prefix := Prefix(kind)
	id = strings.TrimSpace(id)
	if prefix == "" || id == "" || strings.Contains(id, "/") {
		return "", ErrInvalidKey
	}
	return prefix + id, nil
}

func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || len(key) > 512 {
		return ErrInvalidKey
	}
	return nil
}
