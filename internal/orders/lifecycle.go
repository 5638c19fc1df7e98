package orders

// Status is the fulfillment dimension of an order. It moves forward through
// admin action only; the core defines the legal edges and nothing else.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok || s == StatusCancelled
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the fulfillment chain allows moving from
// s to next. Cancellation is reachable from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() || !next.Valid() || s == next {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusOrder[next] == statusOrder[s]+1
}

// PaymentStatus is the payment dimension, independent of Status.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentProcessing, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo encodes the payment edges: pending may move to processing,
// paid or failed; processing settles to paid or failed; only paid can be
// refunded. Failed orders go back to pending on a retry.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if !next.Valid() || p == next {
		return false
	}
	switch p {
	case PaymentPending:
		return next == PaymentProcessing || next == PaymentPaid || next == PaymentFailed
	case PaymentProcessing:
		return next == PaymentPaid || next == PaymentFailed
	case PaymentPaid:
		return next == PaymentRefunded
	case PaymentFailed:
		return next == PaymentPending
	}
	return false
}

// PaymentMethod is fixed at order creation.
type PaymentMethod string

const (
	MethodCard           PaymentMethod = "card"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodCashOnDelivery
}

// PaymentStatusFromProvider maps a payment-provider status string onto the
// payment dimension. Only an affirmative final state from the provider
// yields paid; intermediate states map to processing, never to paid.
func PaymentStatusFromProvider(providerStatus string) PaymentStatus {
	switch providerStatus {
	case "Authorised", "succeeded":
		return PaymentPaid
	case "Refused", "canceled", "payment_failed", "failed":
		return PaymentFailed
	default:
		// Pending, Received, processing, requires_action, requires_capture...
		return PaymentProcessing
	}
}
