package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name        string    `json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Products    []Product `json:"products,omitempty"`
}

// Product holds one decimal price with the currency as a separate field.
// Display strings like "$42.00 USD" are parsed exactly once, when a product
// enters the catalog.
type Product struct {
	BaseModel
	Name           string           `json:"name"`
	Slug           string           `gorm:"uniqueIndex" json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `gorm:"type:numeric(12,2)" json:"price"`
	Currency       string           `json:"currency"`
	Images         pq.StringArray   `gorm:"type:text[]" json:"images"`
	Stock          int              `json:"stock"`
	CategoryID     *uuid.UUID       `gorm:"type:uuid" json:"category_id"`
	Category       *Category        `json:"category,omitempty"`
	IsActive       bool             `gorm:"default:true" json:"is_active"`
	IsHotDeal      bool             `json:"is_hot_deal"`
	HotDealPrice   *decimal.Decimal `gorm:"type:numeric(12,2)" json:"hot_deal_price,omitempty"`
	HotDealEndsAt  *time.Time       `json:"hot_deal_ends_at,omitempty"`
}
