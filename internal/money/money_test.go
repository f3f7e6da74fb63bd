package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already two places", input: "75.00", expected: "75"},
		{name: "half rounds up", input: "11.255", expected: "11.26"},
		{name: "below half rounds down", input: "11.254", expected: "11.25"},
		{name: "long fraction", input: "0.149999", expected: "0.15"},
		{name: "zero", input: "0", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			if err != nil {
				t.Fatalf("failed parsing decimal with error: %s", err)
			}
			expected, err := decimal.NewFromString(tt.expected)
			if err != nil {
				t.Fatalf("failed parsing decimal with error: %s", err)
			}
			assert.True(t, expected.Equal(Round2(d)))
		})
	}
}

func TestTotalsFromLines(t *testing.T) {
	tests := []struct {
		name             string
		lines            []Line
		expectedItems    string
		expectedShipping string
		expectedTax      string
		expectedTotal    string
	}{
		{
			name:             "single line below free shipping threshold",
			lines:            []Line{{Price: decimal.RequireFromString("25.00"), Quantity: 3}},
			expectedItems:    "75.00",
			expectedShipping: "10.00",
			expectedTax:      "11.25",
			expectedTotal:    "96.25",
		},
		{
			name: "above free shipping threshold",
			lines: []Line{
				{Price: decimal.RequireFromString("59.99"), Quantity: 2},
			},
			expectedItems:    "119.98",
			expectedShipping: "0.00",
			expectedTax:      "18.00",
			expectedTotal:    "137.98",
		},
		{
			name:             "exactly at threshold still pays shipping",
			lines:            []Line{{Price: decimal.RequireFromString("100.00"), Quantity: 1}},
			expectedItems:    "100.00",
			expectedShipping: "10.00",
			expectedTax:      "15.00",
			expectedTotal:    "125.00",
		},
		{
			name:             "no lines",
			lines:            nil,
			expectedItems:    "0.00",
			expectedShipping: "10.00",
			expectedTax:      "0.00",
			expectedTotal:    "10.00",
		},
		{
			name: "tax rounding half up",
			lines: []Line{
				{Price: decimal.RequireFromString("0.10"), Quantity: 1},
			},
			expectedItems:    "0.10",
			expectedShipping: "10.00",
			expectedTax:      "0.02",
			expectedTotal:    "10.12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := TotalsFromLines(tt.lines)
			assert.Equal(t, tt.expectedItems, totals.ItemsPrice.StringFixed(2))
			assert.Equal(t, tt.expectedShipping, totals.ShippingPrice.StringFixed(2))
			assert.Equal(t, tt.expectedTax, totals.TaxPrice.StringFixed(2))
			assert.Equal(t, tt.expectedTotal, totals.TotalPrice.StringFixed(2))
		})
	}
}
