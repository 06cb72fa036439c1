package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/locale"
	"vendite/backend/internal/tabular"
)

var returnDocumentTypes = map[string]bool{
	"RESO":            true,
	"NOTA CRED":       true,
	"NOTA DI CREDITO": true,
}

var knownMarketplaces = []string{"zalando", "cettire", "baltini", "yoox", "guhada", "thelist", "miinto"}

const returnShippingMarker = "spese di reso"

const (
	reasonBatchDuplicate     = "riga duplicata nel file"
	reasonPersistedDuplicate = "già presente in archivio"
)

type EcommerceOptions struct {
	PaymentMappings []domain.PaymentMapping
	// ExistingKeys holds fingerprints of records already persisted.
	ExistingKeys KeySet
}

type transactionGroup struct {
	documento string
	numero    string
	rawDate   any
	rows      []int
}

// NormalizeEcommerce splits a combined ecommerce export into sales and
// returns. It is a pure function of rows and opts.
func NormalizeEcommerce(rows []tabular.Row, opts EcommerceOptions) domain.EcommerceResult {
	result := domain.EcommerceResult{
		Sales:      make([]domain.SaleRecord, 0),
		Returns:    make([]domain.ReturnRecord, 0),
		Errors:     make([]string, 0),
		Duplicates: make([]domain.Duplicate, 0),
		TotalRows:  len(rows),
	}

	n := &ecommerceRun{
		rows:     rows,
		result:   &result,
		mappings: indexMappings(opts.PaymentMappings),
		existing: opts.ExistingKeys,
		seen:     KeySet{},
	}
	for _, g := range groupTransactions(rows) {
		n.group(g)
	}

	var sales, returns float64
	for _, s := range result.Sales {
		sales += s.Amount
	}
	for _, r := range result.Returns {
		returns += r.Amount
	}
	result.TotalSalesAmount = locale.Round2(sales)
	result.TotalReturnsAmount = locale.Round2(returns)
	result.ValidSalesRows = len(result.Sales)
	result.ValidReturnsRows = len(result.Returns)
	result.SkippedDuplicates = len(result.Duplicates)
	result.Success = len(result.Errors) == 0
	return result
}

func groupTransactions(rows []tabular.Row) []*transactionGroup {
	index := make(map[string]*transactionGroup)
	ordered := make([]*transactionGroup, 0)
	for i, row := range rows {
		doc := documentColumn.text(row)
		num := numberColumn.text(row)
		rawDate, _ := dateColumn.lookup(row)
		key := doc + "\x00" + num + "\x00" + tabular.CellString(rawDate)
		g, ok := index[key]
		if !ok {
			g = &transactionGroup{documento: doc, numero: num, rawDate: rawDate}
			index[key] = g
			ordered = append(ordered, g)
		}
		g.rows = append(g.rows, i)
	}
	return ordered
}

type ecommerceRun struct {
	rows     []tabular.Row
	result   *domain.EcommerceResult
	mappings map[string]domain.PaymentMapping
	existing KeySet
	seen     KeySet
}

func (n *ecommerceRun) group(g *transactionGroup) {
	date, err := locale.ParseDate(g.rawDate)
	if err != nil {
		lines := make([]string, len(g.rows))
		for i, idx := range g.rows {
			lines[i] = strconv.Itoa(idx + 2)
		}
		n.result.Errors = append(n.result.Errors, fmt.Sprintf(
			"Documento %s n. %s (righe %s): data non valida '%s'",
			g.documento, g.numero, strings.Join(lines, ", "), tabular.CellString(g.rawDate)))
		return
	}
	timestamp := locale.FormatTimestamp(date)
	isReturn := returnDocumentTypes[normalizeDocumentType(g.documento)]

	shipping := 0.0
	if !isReturn {
		shipping = n.groupShipping(g)
	}

	for _, idx := range g.rows {
		row := n.rows[idx]
		line := idx + 2
		base := n.lineBase(row, timestamp, g)

		if strings.Contains(strings.ToLower(base.description), returnShippingMarker) {
			n.returnShippingLine(row, line, base)
			continue
		}

		sku := skuColumn.text(row)
		if !isReturn && sku == "" {
			n.rowError(line, "SKU mancante")
			continue
		}
		rawQty, _ := quantityColumn.lookup(row)
		qty, ok := parseQuantity(rawQty)
		if !ok {
			n.rowError(line, fmt.Sprintf("quantità non valida '%s'", tabular.CellString(rawQty)))
			continue
		}
		_, rawPrice, _ := ResolveColumn(row, priceColumn.Candidates, priceColumn.Fallback)
		price, ok := locale.ParseNumber(rawPrice)
		if !ok {
			n.rowError(line, fmt.Sprintf("prezzo non valido '%s'", tabular.CellString(rawPrice)))
			continue
		}

		if isReturn {
			n.returnLine(line, base, sku, qty, price)
			continue
		}
		if price <= 0 {
			n.rowError(line, fmt.Sprintf("prezzo non valido '%s'", tabular.CellString(rawPrice)))
			continue
		}
		if n.saleLine(line, base, sku, qty, price, shipping) {
			shipping = 0
		}
	}
}

// groupShipping reads the first shipping cost found in the group.
func (n *ecommerceRun) groupShipping(g *transactionGroup) float64 {
	for _, idx := range g.rows {
		v, ok := shippingColumn.lookup(n.rows[idx])
		if !ok {
			continue
		}
		if cost, ok := locale.ParseNumber(v); ok && cost > 0 {
			return cost
		}
	}
	return 0
}

type lineBase struct {
	date          string
	documento     string
	numero        string
	description   string
	orderRef      string
	paymentMethod string
	channel       domain.Channel
	marketplace   string
	area          string
	country       string
	brand         string
	category      string
	season        string
	taxRate       float64
}

func (n *ecommerceRun) lineBase(row tabular.Row, timestamp string, g *transactionGroup) lineBase {
	payment := paymentColumn.text(row)
	platform := platformColumn.text(row)
	channel, marketplace := inferChannel(payment, platform, n.mappings)
	tax, _ := taxRateColumn.lookup(row)
	taxRate, _ := locale.ParseNumber(tax)

	return lineBase{
		date:          timestamp,
		documento:     g.documento,
		numero:        g.numero,
		description:   descriptionColumn.text(row),
		orderRef:      orderRefColumn.text(row),
		paymentMethod: payment,
		channel:       channel,
		marketplace:   marketplace,
		area:          inferArea(row),
		country:       countryColumn.text(row),
		brand:         brandColumn.text(row),
		category:      categoryColumn.text(row),
		season:        seasonColumn.text(row),
		taxRate:       taxRate,
	}
}

func (n *ecommerceRun) saleLine(line int, b lineBase, sku string, qty int, price, shipping float64) bool {
	key := batchSaleKey(b.documento, b.numero, b.date, sku, qty, price)
	sale := domain.SaleRecord{
		Date:           b.date,
		User:           domain.EcommerceUser,
		Channel:        b.channel,
		SKU:            sku,
		Quantity:       qty,
		Price:          price,
		Amount:         locale.RoundAmount(qty, price),
		Brand:          b.brand,
		Category:       b.category,
		Season:         b.season,
		Marketplace:    b.marketplace,
		PaymentMethod:  b.paymentMethod,
		Area:           b.area,
		Country:        b.country,
		OrderReference: b.orderRef,
		TaxRate:        b.taxRate,
		Documento:      b.documento,
		Numero:         b.numero,
	}
	if shipping > 0 {
		sale.ShippingCost = shipping
		sale.Amount = locale.Round2(sale.Amount + shipping)
	}
	if n.duplicate(line, key, SaleFingerprint(sale)) {
		return false
	}
	n.result.Sales = append(n.result.Sales, sale)
	return true
}

// returnLine applies the sign convention: a negative price is shipping
// withheld from the refund, a positive price is a refunded item.
func (n *ecommerceRun) returnLine(line int, b lineBase, sku string, qty int, price float64) {
	if price == 0 {
		n.rowError(line, "prezzo nullo su reso")
		return
	}
	ret := n.returnRecord(b, sku, qty)
	abs := math.Abs(price)
	ret.Price = abs
	if price < 0 {
		ret.IsDeduction = true
		ret.ReturnShippingCost = abs
		ret.Amount = locale.RoundAmount(qty, abs)
	} else {
		ret.Amount = -locale.RoundAmount(qty, abs)
	}

	key := batchReturnKey(b.documento, b.numero, b.date, sku, qty, price, b.orderRef, b.description)
	if n.duplicate(line, key, ReturnFingerprint(ret)) {
		return
	}
	n.result.Returns = append(n.result.Returns, ret)
}

func (n *ecommerceRun) returnShippingLine(row tabular.Row, line int, b lineBase) {
	_, rawPrice, _ := ResolveColumn(row, priceColumn.Candidates, priceColumn.Fallback)
	price, ok := locale.ParseNumber(rawPrice)
	if !ok || price == 0 {
		n.rowError(line, fmt.Sprintf("importo spese di reso non valido '%s'", tabular.CellString(rawPrice)))
		return
	}
	cost := -math.Abs(price)
	ret := n.returnRecord(b, "", 1)
	ret.Price = cost
	ret.Amount = cost
	ret.ReturnShippingCost = math.Abs(price)

	key := batchReturnKey(b.documento, b.numero, b.date, "", 1, cost, b.orderRef, b.description)
	if n.duplicate(line, key, ReturnFingerprint(ret)) {
		return
	}
	n.result.Returns = append(n.result.Returns, ret)
}

func (n *ecommerceRun) returnRecord(b lineBase, sku string, qty int) domain.ReturnRecord {
	return domain.ReturnRecord{
		Date:           b.date,
		User:           domain.EcommerceUser,
		Channel:        b.channel,
		SKU:            sku,
		Quantity:       qty,
		Brand:          b.brand,
		Category:       b.category,
		Season:         b.season,
		Marketplace:    b.marketplace,
		PaymentMethod:  b.paymentMethod,
		Area:           b.area,
		Country:        b.country,
		OrderReference: b.orderRef,
		Description:    b.description,
		TaxRate:        b.taxRate,
		Documento:      b.documento,
		Numero:         b.numero,
	}
}

func (n *ecommerceRun) duplicate(line int, key, fingerprint string) bool {
	if n.seen.Has(key) {
		n.result.Duplicates = append(n.result.Duplicates, domain.Duplicate{Row: line, Key: key, Reason: reasonBatchDuplicate})
		return true
	}
	if n.existing.Has(fingerprint) {
		n.result.Duplicates = append(n.result.Duplicates, domain.Duplicate{Row: line, Key: fingerprint, Reason: reasonPersistedDuplicate})
		return true
	}
	n.seen.Add(key)
	return false
}

func (n *ecommerceRun) rowError(line int, msg string) {
	n.result.Errors = append(n.result.Errors, fmt.Sprintf("Riga %d: %s", line, msg))
}

func normalizeDocumentType(doc string) string {
	return strings.Join(strings.Fields(strings.ToUpper(doc)), " ")
}

func inferArea(row tabular.Row) string {
	for _, name := range areaColumn.Candidates {
		switch strings.TrimSpace(tabular.CellString(row[name])) {
		case domain.AreaFerraris:
			return domain.AreaFerraris
		case domain.AreaZuklat:
			return domain.AreaZuklat
		}
	}
	return ""
}

func indexMappings(mappings []domain.PaymentMapping) map[string]domain.PaymentMapping {
	index := make(map[string]domain.PaymentMapping, len(mappings))
	for _, m := range mappings {
		key := mappingKey(m.PaymentMethod)
		if key == "" {
			continue
		}
		if _, ok := index[key]; !ok {
			index[key] = m
		}
	}
	return index
}

func mappingKey(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

// inferChannel consults the payment mapping first, then the platform name.
// The marketplace label is the platform as written in the export.
func inferChannel(payment, platform string, mappings map[string]domain.PaymentMapping) (domain.Channel, string) {
	if m, ok := mappings[mappingKey(payment)]; ok && payment != "" {
		channel := m.Channel
		if !channel.Valid() && strings.EqualFold(strings.TrimSpace(m.MacroArea), string(domain.ChannelMarketplace)) {
			channel = domain.ChannelMarketplace
		}
		if channel.Valid() {
			if channel == domain.ChannelMarketplace {
				label := platform
				if label == "" {
					label = m.MacroArea
				}
				return channel, label
			}
			return channel, ""
		}
	}

	lower := strings.ToLower(platform)
	for _, name := range knownMarketplaces {
		if strings.Contains(lower, name) {
			return domain.ChannelMarketplace, platform
		}
	}
	return domain.ChannelEcommerce, ""
}
