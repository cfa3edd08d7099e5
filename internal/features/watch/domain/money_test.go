package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruFormat = PriceFormat{DecimalSep: ",", ThousandsSep: " ", Currency: "руб."}

// TestPriceFormat_Parse verifies locale-aware parsing of shop prices.
func TestPriceFormat_Parse(t *testing.T) {
	tests := []struct {
		name   string
		format PriceFormat
		input  string
		want   string
	}{
		{"plain decimal", DefaultPriceFormat, "12990.50", "12990.5"},
		{"comma decimal separator", ruFormat, "1299,50", "1299.5"},
		{"grouped with currency", ruFormat, "1 299,50 руб.", "1299.5"},
		{"non-breaking space group", ruFormat, "129 990,00", "129990"},
		{"dot thousands separator", PriceFormat{DecimalSep: ",", ThousandsSep: ".", Currency: "€"}, "1.299,50 €", "1299.5"},
		{"integer price", ruFormat, "45 990", "45990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.format.Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"parsed %s, want %s", got, tt.want)
		})
	}
}

// TestPriceFormat_Parse_Invalid verifies malformed prices are rejected.
func TestPriceFormat_Parse_Invalid(t *testing.T) {
	_, err := ruFormat.Parse("цена по запросу")
	assert.Error(t, err)

	_, err = ruFormat.Parse("")
	assert.Error(t, err)

	_, err = ruFormat.Parse("руб.")
	assert.Error(t, err)
}

// TestPriceFormat_Format verifies prices render in the shop's locale.
func TestPriceFormat_Format(t *testing.T) {
	d := decimal.RequireFromString("1299.5")

	assert.Equal(t, "1299,50 руб.", ruFormat.Format(d))
	assert.Equal(t, "1299.50", DefaultPriceFormat.Format(d))
}
