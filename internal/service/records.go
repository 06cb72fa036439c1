package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/store"
	"vendite/backend/internal/xid"
)

func writeRoles(kind domain.RecordKind) []string {
	if kind == domain.KindInventory {
		return adminRoles
	}
	return writerRoles
}

// BulkUpsert persists one chunk of normalized records. Sales and returns are
// appended; inventory records replace the entry for their SKU.
func (s *Service) BulkUpsert(ctx context.Context, batch domain.Batch) (domain.BulkResult, error) {
	if !batch.Kind.Valid() {
		return domain.BulkResult{}, fmt.Errorf("%w: unknown record kind %q", domain.ErrInvalidInput, batch.Kind)
	}
	actor, err := authorize(ctx, writeRoles(batch.Kind))
	if err != nil {
		return domain.BulkResult{}, err
	}
	if err := validateBatch(batch); err != nil {
		return domain.BulkResult{}, err
	}

	var result domain.BulkResult
	switch batch.Kind {
	case domain.KindSales, domain.KindReturns:
		result, err = s.insertTransactions(ctx, batch)
	case domain.KindInventory:
		result, err = s.upsertInventory(ctx, batch.Inventory)
	}
	if err != nil {
		return result, err
	}

	if err := s.views.Invalidate(ctx, batch.Kind); err != nil {
		s.log.Warn().Err(err).Str("kind", string(batch.Kind)).Msg("view invalidation failed")
	}
	s.log.Info().
		Str("kind", string(batch.Kind)).
		Str("user", actor.Username).
		Int("records", batch.Len()).
		Int("saved", result.SavedCount).
		Int("duplicates", result.SkippedDuplicates).
		Msg("bulk upsert")
	return result, nil
}

// insertTransactions stores every record under a fresh key. Duplicate
// detection against stored data happens at preview time in the normalizer;
// records reaching this point were accepted as distinct.
func (s *Service) insertTransactions(ctx context.Context, batch domain.Batch) (domain.BulkResult, error) {
	var result domain.BulkResult
	prefix := store.Prefix(batch.Kind)
	for i := 0; i < batch.Len(); i++ {
		var record any
		if batch.Kind == domain.KindSales {
			record = batch.Sales[i]
		} else {
			record = batch.Returns[i]
		}

		payload, err := json.Marshal(record)
		if err != nil {
			return result, err
		}
		err = store.Create(ctx, s.kv, prefix+xid.New(""), payload)
		if errors.Is(err, store.ErrExists) {
			result.SkippedDuplicates++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("save %s record %d: %w", batch.Kind, i, err)
		}
		result.SavedCount++
	}
	return result, nil
}

func (s *Service) upsertInventory(ctx context.Context, records []domain.InventoryRecord) (domain.BulkResult, error) {
	var result domain.BulkResult
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return result, err
		}
		if err := s.kv.Set(ctx, inventoryKey(rec.SKU), payload); err != nil {
			return result, fmt.Errorf("save inventory %s: %w", rec.SKU, err)
		}
		result.SavedCount++
	}
	return result, nil
}

func inventoryKey(sku string) string {
	return store.InventoryPrefix + url.PathEscape(strings.TrimSpace(sku))
}

func validateBatch(batch domain.Batch) error {
	if err := checkBatchShape(batch); err != nil {
		return err
	}
	for i, rec := range batch.Sales {
		if strings.TrimSpace(rec.Date) == "" || strings.TrimSpace(rec.SKU) == "" {
			return fmt.Errorf("%w: sale %d is missing date or sku", domain.ErrInvalidInput, i)
		}
		if rec.Quantity <= 0 || rec.Price <= 0 || rec.Amount < 0 {
			return fmt.Errorf("%w: sale %d has invalid quantity, price or amount", domain.ErrInvalidInput, i)
		}
		if !rec.Channel.Valid() {
			return fmt.Errorf("%w: sale %d has unknown channel %q", domain.ErrInvalidInput, i, rec.Channel)
		}
	}
	for i, rec := range batch.Returns {
		if strings.TrimSpace(rec.Date) == "" || rec.Quantity <= 0 {
			return fmt.Errorf("%w: return %d is missing date or quantity", domain.ErrInvalidInput, i)
		}
		if !rec.Channel.Valid() {
			return fmt.Errorf("%w: return %d has unknown channel %q", domain.ErrInvalidInput, i, rec.Channel)
		}
	}
	for i, rec := range batch.Inventory {
		if strings.TrimSpace(rec.SKU) == "" || strings.TrimSpace(rec.Brand) == "" {
			return fmt.Errorf("%w: inventory %d is missing sku or brand", domain.ErrInvalidInput, i)
		}
		if rec.PurchasePrice < 0 || rec.SellPrice < 0 {
			return fmt.Errorf("%w: inventory %d has a negative price", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

// FetchAll lists every stored record of a kind, serving from the cached view when warm.
func (s *Service) FetchAll(ctx context.Context, kind domain.RecordKind) ([]domain.StoredRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown record kind %q", domain.ErrInvalidInput, kind)
	}
	if _, err := authorize(ctx, readerRoles); err != nil {
		return nil, err
	}

	records, ok, err := s.views.Get(ctx, kind)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("view cache read failed")
	}
	if ok {
		return records, nil
	}
	return s.loadView(ctx, kind)
}

// RefreshView rebuilds the cached view of a kind from the store.
func (s *Service) RefreshView(ctx context.Context, kind domain.RecordKind) ([]domain.StoredRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown record kind %q", domain.ErrInvalidInput, kind)
	}
	if _, err := authorize(ctx, readerRoles); err != nil {
		return nil, err
	}
	return s.loadView(ctx, kind)
}

func (s *Service) loadView(ctx context.Context, kind domain.RecordKind) ([]domain.StoredRecord, error) {
	prefix := store.Prefix(kind)
	entries, err := s.kv.Scan(ctx, prefix)
	if err != nil {
		return nil, err
	}

	records := make([]domain.StoredRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := decodeRecord(kind, strings.TrimPrefix(e.Key, prefix), e.Value)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		records = append(records, rec)
	}

	if err := s.views.Set(ctx, kind, records, s.viewTTL); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("view cache write failed")
	}
	return records, nil
}

func decodeRecord(kind domain.RecordKind, id string, value []byte) (domain.StoredRecord, error) {
	rec := domain.StoredRecord{ID: id, Kind: kind}
	switch kind {
	case domain.KindSales:
		rec.Sale = &domain.SaleRecord{}
		return rec, json.Unmarshal(value, rec.Sale)
	case domain.KindReturns:
		rec.Return = &domain.ReturnRecord{}
		return rec, json.Unmarshal(value, rec.Return)
	default:
		rec.Inventory = &domain.InventoryRecord{}
		return rec, json.Unmarshal(value, rec.Inventory)
	}
}

func (s *Service) Delete(ctx context.Context, kind domain.RecordKind, id string) error {
	if _, err := authorize(ctx, adminRoles); err != nil {
		return err
	}
	key, err := store.RecordKey(kind, id)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return err
	}

	if err := s.views.Invalidate(ctx, kind); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("view invalidation failed")
	}
	s.logAudit(ctx, "record.delete", string(kind), id, "")
	return nil
}

// checkBatchShape rejects records filed under a kind other than batch.Kind.
func checkBatchShape(batch domain.Batch) error {
	counts := map[domain.RecordKind]int{
		domain.KindSales:     len(batch.Sales),
		domain.KindReturns:   len(batch.Returns),
		domain.KindInventory: len(batch.Inventory),
	}
	for kind, n := range counts {
		if kind != batch.Kind && n > 0 {
			return fmt.Errorf("%w: %s batch carries %d %s records", domain.ErrInvalidInput, batch.Kind, n, kind)
		}
	}
	return nil
}
