package normalize

import (
	"fmt"
	"strings"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/locale"
	"vendite/backend/internal/tabular"
)

// NormalizeInventory maps a stock list onto inventory records. A repeated
// SKU keeps its first occurrence. Success means at least one record.
func NormalizeInventory(rows []tabular.Row) domain.InventoryResult {
	result := domain.InventoryResult{
		ProcessedData: make([]domain.InventoryRecord, 0, len(rows)),
		Errors:        make([]string, 0),
		Warnings:      make([]string, 0),
	}
	seen := make(map[string]int)

	for i, row := range rows {
		line := i + 2

		sku := skuColumn.text(row)
		brand := brandColumn.text(row)
		var missing []string
		if sku == "" {
			missing = append(missing, "SKU")
		}
		if brand == "" {
			missing = append(missing, "Brand")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: campi obbligatori mancanti (%s)", line, strings.Join(missing, ", ")))
			continue
		}

		rawPurchase, _ := purchasePriceColumn.lookup(row)
		purchase, ok := locale.ParseNumber(rawPurchase)
		if !ok || purchase < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: prezzo di acquisto non valido '%s'", line, tabular.CellString(rawPurchase)))
			continue
		}

		sell, sellMissing := 0.0, false
		if rawSell, present := sellPriceColumn.lookup(row); present {
			v, ok := locale.ParseNumber(rawSell)
			if !ok || v < 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: prezzo di vendita non valido '%s'", line, tabular.CellString(rawSell)))
				continue
			}
			sell = v
		} else {
			sellMissing = true
		}

		if first, dup := seen[sku]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Riga %d: SKU %s duplicato (già alla riga %d), ignorato", line, sku, first))
			continue
		}
		seen[sku] = line
		if sellMissing {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Riga %d: prezzo di vendita assente per SKU %s, impostato a 0", line, sku))
		}

		result.ProcessedData = append(result.ProcessedData, domain.InventoryRecord{
			SKU:           sku,
			Brand:         brand,
			PurchasePrice: purchase,
			SellPrice:     sell,
			Category:      categoryColumn.text(row),
			Collection:    collectionColumn.text(row),
		})
	}

	result.ProcessedCount = len(result.ProcessedData)
	result.Success = result.ProcessedCount > 0
	return result
}
