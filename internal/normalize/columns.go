// Package normalize maps raw upload rows onto sale, return and inventory records.
package normalize

import (
	"sort"
	"strings"

	"vendite/backend/internal/tabular"
)

// HeaderMatcher reports whether a header, already lower-cased and trimmed,
// holds the wanted field.
type HeaderMatcher func(header string) bool

// Column is a named lookup strategy: candidate headers in priority order,
// then an optional predicate scanned over the remaining headers.
type Column struct {
	Name       string
	Candidates []string
	Fallback   HeaderMatcher
}

func containsAny(needles ...string) HeaderMatcher {
	return func(header string) bool {
		for _, n := range needles {
			if strings.Contains(header, n) {
				return true
			}
		}
		return false
	}
}

var (
	dateColumn     = Column{Name: "Data", Candidates: []string{"Data", "Data documento", "Date"}}
	userColumn     = Column{Name: "Utente", Candidates: []string{"Utente", "User"}}
	skuColumn      = Column{Name: "SKU", Candidates: []string{"SKU", "Sku", "Codice articolo", "Codice", "Articolo"}}
	quantityColumn = Column{Name: "Quant.", Candidates: []string{"Quant.", "Quantità", "Quantita", "Qtà", "Qta", "Quantity", "Qty"}}
	priceColumn    = Column{
		Name:       "Prezzo",
		Candidates: []string{"Prezzo", "Prezzo unitario", "Prezzo Unitario", "Prezzo vendita", "Price", "Unit Price", "Unit price"},
		Fallback:   containsAny("prezzo", "price"),
	}
	paymentColumn = Column{
		Name:       "Metodo di pagamento",
		Candidates: []string{"Metodo di pagamento", "Metodo Pagamento", "Pagamento", "Payment Method"},
	}
	documentColumn    = Column{Name: "Documento", Candidates: []string{"Documento", "Tipo documento"}}
	numberColumn      = Column{Name: "Numero", Candidates: []string{"Numero", "Numero documento", "N."}}
	platformColumn    = Column{Name: "Supplier/Platform", Candidates: []string{"Supplier/Platform", "Piattaforma", "Platform", "Marketplace"}}
	areaColumn        = Column{Name: "Area", Candidates: []string{"Supplier/Platform", "Area"}}
	shippingColumn    = Column{Name: "Spese di spedizione", Candidates: []string{"Spese di spedizione", "Costo spedizione"}}
	descriptionColumn = Column{Name: "Descrizione", Candidates: []string{"Descrizione", "Description"}}
	orderRefColumn    = Column{Name: "Riferimento ordine", Candidates: []string{"Riferimento ordine", "Rif. ordine", "Order Reference", "Ordine"}}
	countryColumn     = Column{Name: "Paese", Candidates: []string{"Paese", "Nazione", "Country"}}
	taxRateColumn     = Column{Name: "Aliquota IVA", Candidates: []string{"Aliquota IVA", "IVA", "Tax Rate"}}
	brandColumn       = Column{Name: "Brand", Candidates: []string{"Brand", "Marca"}}
	categoryColumn    = Column{Name: "Categoria", Candidates: []string{"Categoria", "Category"}}
	seasonColumn      = Column{Name: "Stagione", Candidates: []string{"Stagione", "Season"}}

	purchasePriceColumn = Column{Name: "Prezzo di acquisto", Candidates: []string{"Prezzo di acquisto", "Prezzo acquisto"}}
	sellPriceColumn     = Column{Name: "Prezzo di vendita", Candidates: []string{"Prezzo di vendita", "Prezzo vendita"}}
	collectionColumn    = Column{Name: "Collezione", Candidates: []string{"Collezione", "Collection"}}
)

// ResolveColumn finds the first non-empty cell for a field. Candidates are
// tried exactly, then ignoring case and spacing; the fallback predicate runs
// last over the headers in sorted order.
func ResolveColumn(row tabular.Row, candidates []string, fallback HeaderMatcher) (string, any, bool) {
	for _, c := range candidates {
		if v, ok := row[c]; ok && present(v) {
			return c, v, true
		}
	}

	headers := make([]string, 0, len(row))
	for h := range row {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	for _, c := range candidates {
		want := foldHeader(c)
		for _, h := range headers {
			if foldHeader(h) == want && present(row[h]) {
				return h, row[h], true
			}
		}
	}

	if fallback != nil {
		for _, h := range headers {
			if fallback(foldHeader(h)) && present(row[h]) {
				return h, row[h], true
			}
		}
	}
	return "", nil, false
}

func (c Column) lookup(row tabular.Row) (any, bool) {
	_, v, ok := ResolveColumn(row, c.Candidates, c.Fallback)
	return v, ok
}

func (c Column) text(row tabular.Row) string {
	v, _ := c.lookup(row)
	return tabular.CellString(v)
}

func foldHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func present(v any) bool {
	return tabular.CellString(v) != ""
}
