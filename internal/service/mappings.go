package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/store"
)

func (s *Service) PaymentMappings(ctx context.Context) ([]domain.PaymentMapping, error) {
	if _, err := authorize(ctx, readerRoles); err != nil {
		return nil, err
	}
	return s.loadPaymentMappings(ctx)
}

// SetPaymentMapping adds or replaces the mapping for a payment method.
// Methods compare case-insensitively.
func (s *Service) SetPaymentMapping(ctx context.Context, mapping domain.PaymentMapping) ([]domain.PaymentMapping, error) {
	if _, err := authorize(ctx, adminRoles); err != nil {
		return nil, err
	}
	mapping.PaymentMethod = strings.TrimSpace(mapping.PaymentMethod)
	mapping.MacroArea = strings.TrimSpace(mapping.MacroArea)
	if mapping.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrInvalidInput)
	}
	if mapping.Channel != "" && !mapping.Channel.Valid() {
		return nil, fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidInput, mapping.Channel)
	}
	if mapping.MacroArea == "" && mapping.Channel == "" {
		return nil, fmt.Errorf("%w: macro area or channel is required", domain.ErrInvalidInput)
	}

	mappings, err := s.loadPaymentMappings(ctx)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range mappings {
		if strings.EqualFold(mappings[i].PaymentMethod, mapping.PaymentMethod) {
			mappings[i] = mapping
			replaced = true
		}
	}
	if !replaced {
		mappings = append(mappings, mapping)
	}
	sort.Slice(mappings, func(i, j int) bool {
		return strings.ToLower(mappings[i].PaymentMethod) < strings.ToLower(mappings[j].PaymentMethod)
	})

	if err := s.savePaymentMappings(ctx, mappings); err != nil {
		return nil, err
	}
	s.logAudit(ctx, "payment_mapping.set", "payment_mapping", mapping.PaymentMethod,
		fmt.Sprintf("macro_area=%s channel=%s", mapping.MacroArea, mapping.Channel))
	return mappings, nil
}

func (s *Service) DeletePaymentMapping(ctx context.Context, paymentMethod string) error {
	if _, err := authorize(ctx, adminRoles); err != nil {
		return err
	}
	paymentMethod = strings.TrimSpace(paymentMethod)

	mappings, err := s.loadPaymentMappings(ctx)
	if err != nil {
		return err
	}
	kept := mappings[:0]
	for _, m := range mappings {
		if !strings.EqualFold(m.PaymentMethod, paymentMethod) {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(mappings) {
		return fmt.Errorf("%w: payment mapping %q", domain.ErrNotFound, paymentMethod)
	}

	if err := s.savePaymentMappings(ctx, kept); err != nil {
		return err
	}
	s.logAudit(ctx, "payment_mapping.delete", "payment_mapping", paymentMethod, "")
	return nil
}

func (s *Service) loadPaymentMappings(ctx context.Context) ([]domain.PaymentMapping, error) {
	raw, err := s.kv.Get(ctx, store.PaymentMappingsKey)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.PaymentMapping{}, nil
	}
	if err != nil {
		return nil, err
	}
	var mappings []domain.PaymentMapping
	if err := json.Unmarshal(raw, &mappings); err != nil {
		return nil, fmt.Errorf("decode payment mappings: %w", err)
	}
	return mappings, nil
}

func (s *Service) savePaymentMappings(ctx context.Context, mappings []domain.PaymentMapping) error {
	payload, err := json.Marshal(mappings)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, store.PaymentMappingsKey, payload)
}
