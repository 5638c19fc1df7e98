package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerInfo is an immutable snapshot of shipping and contact fields taken
// at order creation. A changed address means a new order, never a mutation.
type CustomerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

// PaymentDetails holds opaque payment-provider metadata attached once the
// provider confirms.
type PaymentDetails struct {
	StripePaymentIntentID string `json:"stripe_payment_intent_id"`
	StripeCustomerID      string `json:"stripe_customer_id"`
	PaymentMethodDetail   string `json:"payment_method_detail"`
	ReceiptURL            string `json:"receipt_url"`
	ProviderStatus        string `json:"provider_status"`
}

// Notifications carries idempotency flags for post-confirmation side effects.
type Notifications struct {
	PaymentEmailSent    bool       `json:"payment_email_sent"`
	PaymentEmailSentAt  *time.Time `json:"payment_email_sent_at"`
	ShippingEmailSent   bool       `json:"shipping_email_sent"`
	ShippingEmailSentAt *time.Time `json:"shipping_email_sent_at"`
}

type Order struct {
	BaseModel
	OrderID          string          `gorm:"uniqueIndex" json:"order_id"`
	PaymentReference string          `gorm:"uniqueIndex" json:"payment_reference"`
	Customer         CustomerInfo    `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Items            []OrderItem     `json:"items,omitempty"`
	Subtotal         decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	ShippingCost     decimal.Decimal `gorm:"type:numeric(12,2)" json:"shipping_cost"`
	TaxAmount        decimal.Decimal `gorm:"type:numeric(12,2)" json:"tax_amount"`
	TaxPercentage    decimal.Decimal `gorm:"type:numeric(5,2)" json:"tax_percentage"`
	Total            decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	Currency         string          `json:"currency"`
	Status           string          `gorm:"index" json:"status"`
	PaymentStatus    string          `gorm:"index" json:"payment_status"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentDetails   PaymentDetails  `gorm:"embedded;embeddedPrefix:payment_" json:"payment_details"`
	TrackingNumber   string          `json:"tracking_number"`
	Notifications    Notifications   `gorm:"embedded;embeddedPrefix:notify_" json:"notifications"`
	PlacedAt         time.Time       `json:"placed_at"`
}

// OrderItem is a snapshot of a cart line, decoupled from live product stock
// and price so later catalog edits cannot change what was sold.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	Currency  string          `json:"currency"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2)" json:"line_total"`
}
