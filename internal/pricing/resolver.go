package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/example/velora/internal/money"
)

// Result is what checkout persists into the immutable order snapshot.
// Identical (pieces, countryCode) input against unchanged tables always
// yields an identical Result.
type Result struct {
	CountryName         string          `json:"country"`
	ShippingCost        decimal.Decimal `json:"shipping_cost"`
	TaxPercentage       decimal.Decimal `json:"tax_percentage"`
	DeliveryDescription string          `json:"delivery_description"`
}

// Resolver composes the country registry and the delivery rule table.
// It is a pure composition: no caching, no retries.
type Resolver struct {
	countries *CountryTaxRegistry
	rules     *DeliveryRuleTable
}

func NewResolver(countries *CountryTaxRegistry, rules *DeliveryRuleTable) *Resolver {
	return &Resolver{countries: countries, rules: rules}
}

// Resolve returns the shipping cost and tax percentage for an order of
// pieces items shipped to countryCode, or ErrUnsupportedCountry /
// ErrNoDeliveryRule.
func (r *Resolver) Resolve(ctx context.Context, pieces int, countryCode string) (*Result, error) {
	country, err := r.countries.Resolve(ctx, countryCode)
	if err != nil {
		return nil, err
	}

	rule, err := r.rules.Resolve(ctx, pieces, countryCode)
	if err != nil {
		return nil, err
	}

	return &Result{
		CountryName:         country.CountryName,
		ShippingCost:        rule.DeliveryCost,
		TaxPercentage:       country.TaxPercentage,
		DeliveryDescription: rule.Description,
	}, nil
}

// Quote composes a subtotal with a resolved Result into final order totals,
// each rounded to two decimal places.
type Quote struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// Quote applies tax = subtotal * pct / 100 and
// total = subtotal + tax + shipping.
func (r *Result) Quote(subtotal decimal.Decimal) Quote {
	sub := money.Round(subtotal)
	tax := money.Round(sub.Mul(r.TaxPercentage).Div(oneHundred))
	shipping := money.Round(r.ShippingCost)

	return Quote{
		Subtotal:      sub,
		ShippingCost:  shipping,
		TaxPercentage: r.TaxPercentage,
		TaxAmount:     tax,
		Total:         sub.Add(tax).Add(shipping),
	}
}
