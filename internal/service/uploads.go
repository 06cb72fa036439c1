package service

import (
	"context"
	"encoding/json"
	"fmt"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/normalize"
	"vendite/backend/internal/store"
	"vendite/backend/internal/tabular"
	"vendite/backend/internal/xid"
)

func uploadRoles(kind domain.UploadKind) []string {
	switch kind {
	case domain.UploadStoreSales:
		return storeSalesRoles
	case domain.UploadEcommerce:
		return ecommerceRoles
	}
	return adminRoles
}

// PreviewUpload reads and normalizes a file without persisting anything.
// File-level problems are returned as errors; row problems live in the result.
func (s *Service) PreviewUpload(ctx context.Context, kind domain.UploadKind, filename string, data []byte) (domain.UploadPreview, error) {
	if !kind.Valid() {
		return domain.UploadPreview{}, fmt.Errorf("%w: unknown upload kind %q", domain.ErrInvalidInput, kind)
	}
	actor, err := authorize(ctx, uploadRoles(kind))
	if err != nil {
		return domain.UploadPreview{}, err
	}

	rows, err := tabular.Read(filename, data)
	if err != nil {
		return domain.UploadPreview{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	preview := domain.UploadPreview{
		UploadID: xid.New("up"),
		Kind:     kind,
		Filename: filename,
	}
	event := s.log.Info().Str("kind", string(kind)).Str("user", actor.Username).Str("file", filename).Int("rows", len(rows))

	switch kind {
	case domain.UploadStoreSales:
		res := normalize.NormalizeStoreSales(rows)
		preview.StoreSales = &res
		event = event.Int("valid", res.ValidRows).Int("errors", len(res.Errors))
	case domain.UploadEcommerce:
		mappings, err := s.loadPaymentMappings(ctx)
		if err != nil {
			return domain.UploadPreview{}, err
		}
		existing, err := s.persistedFingerprints(ctx)
		if err != nil {
			return domain.UploadPreview{}, err
		}
		res := normalize.NormalizeEcommerce(rows, normalize.EcommerceOptions{
			PaymentMappings: mappings,
			ExistingKeys:    existing,
		})
		preview.Ecommerce = &res
		event = event.Int("sales", res.ValidSalesRows).Int("returns", res.ValidReturnsRows).
			Int("duplicates", res.SkippedDuplicates).Int("errors", len(res.Errors))
	case domain.UploadInventory:
		res := normalize.NormalizeInventory(rows)
		preview.Inventory = &res
		event = event.Int("valid", res.ProcessedCount).Int("errors", len(res.Errors)).Int("warnings", len(res.Warnings))
	}

	event.Str("upload_id", preview.UploadID).Msg("upload previewed")
	return preview, nil
}

// persistedFingerprints collects date_sku_qty_amount keys of stored sales and returns.
func (s *Service) persistedFingerprints(ctx context.Context) (normalize.KeySet, error) {
	keys := normalize.KeySet{}
	if err := s.collectFingerprints(ctx, domain.KindSales, keys); err != nil {
		return nil, err
	}
	if err := s.collectFingerprints(ctx, domain.KindReturns, keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Service) collectFingerprints(ctx context.Context, kind domain.RecordKind, keys normalize.KeySet) error {
	entries, err := s.kv.Scan(ctx, store.Prefix(kind))
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch kind {
		case domain.KindSales:
			var rec domain.SaleRecord
			if err := json.Unmarshal(e.Value, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", e.Key, err)
			}
			keys.Add(normalize.SaleFingerprint(rec))
		case domain.KindReturns:
			var rec domain.ReturnRecord
			if err := json.Unmarshal(e.Value, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", e.Key, err)
			}
			keys.Add(normalize.ReturnFingerprint(rec))
		}
	}
	return nil
}
