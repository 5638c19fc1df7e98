package pricing

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
)

// CountryStore loads admin-managed country tax entries.
type CountryStore interface {
	// ActiveByCode returns the active entry for an uppercase ISO-2 code,
	// or gorm.ErrRecordNotFound.
	ActiveByCode(ctx context.Context, code string) (*models.CountryTax, error)
}

// CountryTaxRegistry resolves a destination country to its tax percentage.
type CountryTaxRegistry struct {
	store CountryStore
}

func NewCountryTaxRegistry(store CountryStore) *CountryTaxRegistry {
	return &CountryTaxRegistry{store: store}
}

// Resolve looks up an active country entry. Input is case-insensitive.
// An absent or inactive country is ErrUnsupportedCountry, never a default.
func (r *CountryTaxRegistry) Resolve(ctx context.Context, countryCode string) (*models.CountryTax, error) {
	code := NormalizeCountryCode(countryCode)
	if code == "" {
		return nil, ErrUnsupportedCountry
	}

	entry, err := r.store.ActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnsupportedCountry
		}
		return nil, err
	}

	return entry, nil
}

// NormalizeCountryCode uppercases and trims an ISO-2 code.
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GormCountryStore is the Postgres-backed CountryStore.
type GormCountryStore struct {
	db *gorm.DB
}

func NewGormCountryStore(db *gorm.DB) *GormCountryStore {
	return &GormCountryStore{db: db}
}

func (s *GormCountryStore) ActiveByCode(ctx context.Context, code string) (*models.CountryTax, error) {
	var entry models.CountryTax
	if err := s.db.WithContext(ctx).
		Where("country_code = ? AND is_active = ?", code, true).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
