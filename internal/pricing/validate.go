package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
)

// ValidateRule checks a delivery rule before it is written. Beyond the basic
// band invariant it rejects any active rule whose band overlaps another
// active rule for the same country value; the unique index on the tuple
// cannot catch e.g. [1,5] vs [3,8].
func ValidateRule(ctx context.Context, db *gorm.DB, rule models.DeliveryRule) error {
	if rule.MinPieces < 1 {
		return fmt.Errorf("min_pieces must be at least 1")
	}
	if rule.MaxPieces < rule.MinPieces {
		return fmt.Errorf("max_pieces must be greater than or equal to min_pieces")
	}
	if rule.DeliveryCost.IsNegative() {
		return fmt.Errorf("delivery_cost must not be negative")
	}
	if !rule.IsActive {
		return nil
	}

	var existing []models.DeliveryRule
	query := db.WithContext(ctx).
		Where("country = ? AND is_active = ?", rule.Country, true)
	if rule.ID != uuid.Nil {
		query = query.Where("id <> ?", rule.ID)
	}
	if err := query.Find(&existing).Error; err != nil {
		return err
	}

	for _, other := range existing {
		if rule.Overlaps(other) {
			return fmt.Errorf("band [%d,%d] overlaps existing rule [%d,%d] for country %s",
				rule.MinPieces, rule.MaxPieces, other.MinPieces, other.MaxPieces, rule.Country)
		}
	}

	return nil
}

// ValidateCountry checks a country tax entry before it is written.
func ValidateCountry(entry models.CountryTax) error {
	if len(entry.CountryCode) != 2 {
		return fmt.Errorf("country_code must be a two-letter ISO code")
	}
	if entry.CountryName == "" {
		return fmt.Errorf("country_name is required")
	}
	if entry.TaxPercentage.IsNegative() || entry.TaxPercentage.GreaterThan(oneHundred) {
		return fmt.Errorf("tax_percentage must be between 0 and 100")
	}
	if entry.BaseCost.IsNegative() {
		return fmt.Errorf("base_cost must not be negative")
	}
	return nil
}
