package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"vendite/backend/internal/domain"
)

// ViewCache holds the last fetched listing of each record kind.
type ViewCache interface {
	Get(ctx context.Context, kind domain.RecordKind) ([]domain.StoredRecord, bool, error)
	Set(ctx context.Context, kind domain.RecordKind, records []domain.StoredRecord, ttl time.Duration) error
	Invalidate(ctx context.Context, kind domain.RecordKind) error
}

type NoopViewCache struct{}

func (NoopViewCache) Get(_ context.Context, _ domain.RecordKind) ([]domain.StoredRecord, bool, error) {
	return nil, false, nil
}

func (NoopViewCache) Set(_ context.Context, _ domain.RecordKind, _ []domain.StoredRecord, _ time.Duration) error {
	return nil
}

func (NoopViewCache) Invalidate(_ context.Context, _ domain.RecordKind) error {
	return nil
}

// LocalViewCache keeps views in process memory.
type LocalViewCache struct {
	c *gocache.Cache
}

func NewLocalViewCache(defaultTTL time.Duration) *LocalViewCache {
	return &LocalViewCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (l *LocalViewCache) Get(_ context.Context, kind domain.RecordKind) ([]domain.StoredRecord, bool, error) {
	v, ok := l.c.Get(viewKey(kind))
	if !ok {
		return nil, false, nil
	}
	records, ok := v.([]domain.StoredRecord)
	return records, ok, nil
}

func (l *LocalViewCache) Set(_ context.Context, kind domain.RecordKind, records []domain.StoredRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	l.c.Set(viewKey(kind), records, ttl)
	return nil
}

func (l *LocalViewCache) Invalidate(_ context.Context, kind domain.RecordKind) error {
	l.c.Delete(viewKey(kind))
	return nil
}

func viewKey(kind domain.RecordKind) string {
	return "view:" + string(kind)
}
