package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"vendite/backend/internal/cache"
	"vendite/backend/internal/domain"
	"vendite/backend/internal/store"
	"vendite/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Roles allowed per operation.
var (
	storeSalesRoles = []string{domain.RoleAdmin, domain.RoleNegozio}
	ecommerceRoles  = []string{domain.RoleAdmin, domain.RoleEcommerce}
	adminRoles      = []string{domain.RoleAdmin}
	writerRoles     = []string{domain.RoleAdmin, domain.RoleNegozio, domain.RoleEcommerce}
	readerRoles     = []string{domain.RoleAdmin, domain.RoleNegozio, domain.RoleEcommerce, domain.RoleViewer}
)

type Service struct {
	kv      store.KV
	views   cache.ViewCache
	viewTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

func New(kv store.KV, views cache.ViewCache, viewTTL time.Duration, logger zerolog.Logger) *Service {
	if views == nil {
		views = cache.NoopViewCache{}
	}
	if viewTTL <= 0 {
		viewTTL = time.Minute
	}
	return &Service{
		kv:      kv,
		views:   views,
		viewTTL: viewTTL,
		log:     logger.With().Str("component", "service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func authorize(ctx context.Context, roles []string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		return domain.Actor{}, fmt.Errorf("%w: no signed-in user", domain.ErrForbidden)
	}
	if !slices.Contains(roles, actor.Role) {
		return domain.Actor{}, fmt.Errorf("%w: role %q", domain.ErrForbidden, actor.Role)
	}
	return actor, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if _, err := authorize(ctx, adminRoles); err != nil {
		return nil, err
	}
	entries, err := s.kv.Scan(ctx, store.AuditPrefix)
	if err != nil {
		return nil, err
	}

	logs := make([]domain.AuditLog, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		var entry domain.AuditLog
		if err := json.Unmarshal(entries[i].Value, &entry); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entries[i].Key, err)
		}
		logs = append(logs, entry)
		if limit > 0 && len(logs) >= limit {
			break
		}
	}
	return logs, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	entry := domain.AuditLog{
		ID:            xid.New(""),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}
	payload, err := json.Marshal(entry)
	if err == nil {
		err = s.kv.Set(ctx, store.AuditPrefix+entry.ID, payload)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("entity", entityType+"/"+entityID).Msg("audit log write failed")
	}
}
