package normalize

import (
	"fmt"
	"strconv"

	"vendite/backend/internal/domain"
)

// KeySet is a set of dedup keys or persisted fingerprints.
type KeySet map[string]struct{}

func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

func batchSaleKey(documento, numero, date, sku string, qty int, price float64) string {
	return fmt.Sprintf("%s_%s_%s_%s_%d_%s", documento, numero, date, sku, qty, formatPrice(price))
}

func batchReturnKey(documento, numero, date, sku string, qty int, price float64, orderRef, description string) string {
	ref := orderRef
	if ref == "" {
		ref = sku
	}
	if ref == "" {
		ref = description
	}
	return batchSaleKey(documento, numero, date, sku, qty, price) + "_" + ref
}

// Fingerprint identifies a persisted record: date_sku_qty_amount.
func Fingerprint(date, sku string, qty int, amount float64) string {
	return fmt.Sprintf("%s_%s_%d_%s", date, sku, qty, strconv.FormatFloat(amount, 'f', 2, 64))
}

func SaleFingerprint(r domain.SaleRecord) string {
	return Fingerprint(r.Date, r.SKU, r.Quantity, r.Amount)
}

func ReturnFingerprint(r domain.ReturnRecord) string {
	return Fingerprint(r.Date, r.SKU, r.Quantity, r.Amount)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
