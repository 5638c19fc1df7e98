// Package money provides the decimal amount type used across catalog,
// pricing and orders. Display strings like "$42.00 USD" are parsed once,
// at the catalog ingestion boundary, and never again downstream.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a price string carries no currency suffix.
const DefaultCurrency = "USD"

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// ParsePrice converts a display price such as "$42.00 USD", "42.00 USD" or
// "42.00" into a decimal amount and an explicit currency code.
func ParsePrice(raw string) (decimal.Decimal, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, "", fmt.Errorf("empty price")
	}

	currency := ""
	for symbol, code := range currencySymbols {
		if strings.HasPrefix(s, symbol) {
			s = strings.TrimPrefix(s, symbol)
			currency = code
			break
		}
	}

	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
	case 2:
		code := strings.ToUpper(fields[1])
		if currency != "" && code != currency {
			return decimal.Zero, "", fmt.Errorf("conflicting currency in price %q", raw)
		}
		currency = code
	default:
		return decimal.Zero, "", fmt.Errorf("malformed price %q", raw)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(fields[0], ",", ""))
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("malformed price %q: %w", raw, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, "", fmt.Errorf("negative price %q", raw)
	}

	if currency == "" {
		currency = DefaultCurrency
	}

	return Round(amount), currency, nil
}

// Round normalizes an amount to two decimal places, the precision every
// persisted monetary value carries.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Format renders an amount for human-facing output such as emails.
func Format(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return amount.StringFixed(2) + " " + currency
}
