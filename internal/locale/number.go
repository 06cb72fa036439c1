package locale

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber reads an Italian-formatted amount or quantity. Numeric cell
// values pass through unchanged. ok is false when nothing numeric is left
// after cleaning, so the caller decides whether absence is fatal.
func ParseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return ParseNumber(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return parseNumberString(n)
	}
	return 0, false
}

func parseNumberString(raw string) (float64, bool) {
	cleaned := cleanNumber(raw)
	if cleaned == "" {
		return 0, false
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		idx := strings.LastIndex(cleaned, ",")
		suffix := cleaned[idx+1:]
		head := strings.ReplaceAll(cleaned[:idx], ",", "")
		switch {
		case suffix == "":
			cleaned = head
		case len(suffix) <= 2:
			cleaned = head + "." + suffix
		default:
			cleaned = head + suffix
		}
	}

	if cleaned == "" || cleaned == "-" || cleaned == "." || cleaned == "-." {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cleanNumber keeps digits, separators and a minus sign in leading position.
func cleanNumber(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RoundAmount returns quantity × price rounded half away from zero to cents.
func RoundAmount(quantity int, price float64) float64 {
	amount := decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromFloat(price))
	return amount.Round(2).InexactFloat64()
}

// Round2 rounds an already computed amount to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
