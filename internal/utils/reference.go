package utils

import (
	"fmt"
	"math/rand"
	"time"
)

// OrderReference pairs the public order id with its payment reference. Both
// use the same six-digit timestamp suffix plus three random digits; entropy,
// not a transaction, keeps them collision-free in practice.
type OrderReference struct {
	OrderID          string
	PaymentReference string
}

// NewOrderReference generates ORD-/REF- identifiers for a new order.
func NewOrderReference() OrderReference {
	ts := time.Now().UnixMilli() % 1000000
	random := rand.Intn(1000)
	suffix := fmt.Sprintf("%06d%03d", ts, random)

	return OrderReference{
		OrderID:          "ORD-" + suffix,
		PaymentReference: "REF-" + suffix,
	}
}
