package normalize

import (
	"fmt"
	"math"
	"strings"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/locale"
	"vendite/backend/internal/tabular"
)

var storeUsers = map[string]domain.Channel{
	"carla":     domain.ChannelNegozioDonna,
	"alexander": domain.ChannelNegozioUomo,
	"paolo":     domain.ChannelNegozioUomo,
}

// StoreChannel returns the physical store a till user sells for.
func StoreChannel(user string) (domain.Channel, bool) {
	ch, ok := storeUsers[strings.ToLower(strings.TrimSpace(user))]
	return ch, ok
}

// NormalizeStoreSales maps a physical-store export onto sale records. Data
// carries every valid row even when Success is false.
func NormalizeStoreSales(rows []tabular.Row) domain.StoreSalesResult {
	result := domain.StoreSalesResult{
		Data:      make([]domain.SaleRecord, 0, len(rows)),
		Errors:    make([]string, 0),
		TotalRows: len(rows),
	}

	for i, row := range rows {
		line := i + 2
		sale, err := storeSale(row, line)
		if err != "" {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Data = append(result.Data, sale)
	}

	result.ValidRows = len(result.Data)
	result.Success = len(result.Errors) == 0
	return result
}

func storeSale(row tabular.Row, line int) (domain.SaleRecord, string) {
	required := []Column{dateColumn, userColumn, skuColumn, quantityColumn, priceColumn}
	var missing []string
	values := make([]any, len(required))
	for i, col := range required {
		v, ok := col.lookup(row)
		if !ok {
			missing = append(missing, col.Name)
			continue
		}
		values[i] = v
	}
	if len(missing) > 0 {
		return domain.SaleRecord{}, fmt.Sprintf("Riga %d: campi obbligatori mancanti (%s)", line, strings.Join(missing, ", "))
	}

	user := strings.ToLower(tabular.CellString(values[1]))
	channel, ok := storeUsers[user]
	if !ok {
		return domain.SaleRecord{}, fmt.Sprintf("Riga %d: utente sconosciuto '%s'", line, tabular.CellString(values[1]))
	}

	date, err := locale.ParseDate(values[0])
	if err != nil {
		return domain.SaleRecord{}, fmt.Sprintf("Riga %d: data non valida '%s'", line, tabular.CellString(values[0]))
	}

	qty, ok := parseQuantity(values[3])
	if !ok {
		return domain.SaleRecord{}, fmt.Sprintf("Riga %d: quantità non valida '%s'", line, tabular.CellString(values[3]))
	}
	price, ok := locale.ParseNumber(values[4])
	if !ok || price <= 0 {
		return domain.SaleRecord{}, fmt.Sprintf("Riga %d: prezzo non valido '%s'", line, tabular.CellString(values[4]))
	}

	return domain.SaleRecord{
		Date:          locale.FormatTimestamp(date),
		User:          user,
		Channel:       channel,
		SKU:           tabular.CellString(values[2]),
		Quantity:      qty,
		Price:         price,
		Amount:        locale.RoundAmount(qty, price),
		PaymentMethod: paymentColumn.text(row),
		Brand:         brandColumn.text(row),
		Category:      categoryColumn.text(row),
		Season:        seasonColumn.text(row),
	}, ""
}

// parseQuantity accepts whole positive numbers only.
func parseQuantity(v any) (int, bool) {
	q, ok := locale.ParseNumber(v)
	if !ok || q <= 0 || q != math.Trunc(q) || q > math.MaxInt32 {
		return 0, false
	}
	return int(q), true
}
