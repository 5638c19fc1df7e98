package models

import "github.com/shopspring/decimal"

// RuleCountryAll marks a delivery rule that applies to every destination.
const RuleCountryAll = "ALL"

// CountryTax is an admin-managed destination entry. BaseCost is a reference
// shipping cost only; the effective shipping cost comes from DeliveryRule.
type CountryTax struct {
	BaseModel
	CountryCode   string          `gorm:"uniqueIndex;size:2" json:"country_code"`
	CountryName   string          `json:"country_name"`
	BaseCost      decimal.Decimal `gorm:"type:numeric(12,2)" json:"base_cost"`
	TaxPercentage decimal.Decimal `gorm:"type:numeric(5,2)" json:"tax_percentage"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
}

// DeliveryRule is a piece-count band with a flat cost, scoped to a single
// country or to ALL. The composite unique index is a backstop; real overlap
// validation happens at write time in the pricing package.
type DeliveryRule struct {
	BaseModel
	MinPieces    int             `gorm:"uniqueIndex:idx_delivery_band" json:"min_pieces"`
	MaxPieces    int             `gorm:"uniqueIndex:idx_delivery_band" json:"max_pieces"`
	Country      string          `gorm:"uniqueIndex:idx_delivery_band;default:ALL" json:"country"`
	DeliveryCost decimal.Decimal `gorm:"type:numeric(12,2)" json:"delivery_cost"`
	Description  string          `json:"description"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
}

// CountrySpecific reports whether the rule is scoped to one destination.
func (r DeliveryRule) CountrySpecific() bool {
	return r.Country != RuleCountryAll
}

// Covers reports whether pieces falls inside the inclusive band.
func (r DeliveryRule) Covers(pieces int) bool {
	return r.MinPieces <= pieces && pieces <= r.MaxPieces
}

// Overlaps reports whether two bands share any piece count.
func (r DeliveryRule) Overlaps(other DeliveryRule) bool {
	return r.MinPieces <= other.MaxPieces && other.MinPieces <= r.MaxPieces
}
