package money

import (
	"github.com/shopspring/decimal"
)

var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingFee       = decimal.NewFromInt(10)
	taxRate               = decimal.NewFromFloat(0.15)
)

// Round2 rounds half up to two decimal places. Every persisted monetary value
// goes through this so totals never accumulate binary-fraction drift.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

type Line struct {
	Price    decimal.Decimal
	Quantity int32
}

type Totals struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// TotalsFromLines derives the four cart totals from the line items:
//
//	itemsPrice    = round2(Σ price_i * qty_i)
//	shippingPrice = round2(itemsPrice > 100 ? 0 : 10)
//	taxPrice      = round2(itemsPrice * 0.15)
//	totalPrice    = round2(itemsPrice + shippingPrice + taxPrice)
func TotalsFromLines(lines []Line) Totals {
	itemsPrice := decimal.Zero
	for _, line := range lines {
		itemsPrice = itemsPrice.Add(line.Price.Mul(decimal.NewFromInt32(line.Quantity)))
	}
	itemsPrice = Round2(itemsPrice)

	shippingPrice := flatShippingFee
	if itemsPrice.GreaterThan(freeShippingThreshold) {
		shippingPrice = decimal.Zero
	}
	shippingPrice = Round2(shippingPrice)

	taxPrice := Round2(itemsPrice.Mul(taxRate))
	totalPrice := Round2(itemsPrice.Add(shippingPrice).Add(taxPrice))

	return Totals{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shippingPrice,
		TaxPrice:      taxPrice,
		TotalPrice:    totalPrice,
	}
}

func ZeroTotals() Totals {
	return Totals{
		ItemsPrice:    decimal.Zero,
		ShippingPrice: decimal.Zero,
		TaxPrice:      decimal.Zero,
		TotalPrice:    decimal.Zero,
	}
}
