package pricing

import "errors"

var (
	// ErrUnsupportedCountry means the destination is absent or inactive in
	// the country registry. There is no fallback tax rate.
	ErrUnsupportedCountry = errors.New("we do not ship to this country")

	// ErrNoDeliveryRule means no active band covers the order's piece count.
	// Checkout is blocked; shipping cost is never guessed.
	ErrNoDeliveryRule = errors.New("no delivery rule found for this order")
)
