package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceFormat holds the locale rules the shop formats prices with.
// Separators and the currency marker are explicit configuration; there
// is no ambient locale state.
type PriceFormat struct {
	// DecimalSep separates the fractional part, e.g. "," for ru-RU.
	DecimalSep string
	// ThousandsSep groups digits, e.g. " " or ".".
	ThousandsSep string
	// Currency is the currency marker stripped during parsing, e.g. "руб.".
	Currency string
}

// DefaultPriceFormat matches plain machine-readable prices ("12990.50").
var DefaultPriceFormat = PriceFormat{DecimalSep: "."}

// Parse converts a shop-formatted price string into a decimal.
func (f PriceFormat) Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if f.Currency != "" {
		cleaned = strings.ReplaceAll(cleaned, f.Currency, "")
	}
	// Non-breaking spaces show up as digit group separators in scraped markup.
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if f.ThousandsSep != "" && f.ThousandsSep != " " {
		cleaned = strings.ReplaceAll(cleaned, f.ThousandsSep, "")
	}
	if f.DecimalSep != "" && f.DecimalSep != "." {
		cleaned = strings.ReplaceAll(cleaned, f.DecimalSep, ".")
	}

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty price string %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable price %q: %w", s, err)
	}
	return d, nil
}

// Format renders a decimal the way the shop's locale displays it, for
// logs and notifications.
func (f PriceFormat) Format(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if f.DecimalSep != "" && f.DecimalSep != "." {
		s = strings.Replace(s, ".", f.DecimalSep, 1)
	}
	if f.Currency == "" {
		return s
	}
	return s + " " + f.Currency
}
