package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
)

// stubCountryStore implements CountryStore in memory.
type stubCountryStore struct {
	entries map[string]models.CountryTax
}

func (s *stubCountryStore) ActiveByCode(ctx context.Context, code string) (*models.CountryTax, error) {
	entry, ok := s.entries[code]
	if !ok || !entry.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}

// stubRuleStore implements RuleStore in memory, mirroring the SQL filter.
type stubRuleStore struct {
	rules []models.DeliveryRule
}

func (s *stubRuleStore) ActiveCandidates(ctx context.Context, pieces int, country string) ([]models.DeliveryRule, error) {
	var out []models.DeliveryRule
	for _, r := range s.rules {
		if r.IsActive && r.Covers(pieces) && (r.Country == country || r.Country == models.RuleCountryAll) {
			out = append(out, r)
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rule(min, max int, country, cost string, active bool) models.DeliveryRule {
	return models.DeliveryRule{
		MinPieces:    min,
		MaxPieces:    max,
		Country:      country,
		DeliveryCost: dec(cost),
		IsActive:     active,
	}
}

func newResolver(countries map[string]models.CountryTax, rules []models.DeliveryRule) *Resolver {
	return NewResolver(
		NewCountryTaxRegistry(&stubCountryStore{entries: countries}),
		NewDeliveryRuleTable(&stubRuleStore{rules: rules}),
	)
}

var usCountry = map[string]models.CountryTax{
	"US": {CountryCode: "US", CountryName: "United States", TaxPercentage: dec("8"), IsActive: true},
	"DE": {CountryCode: "DE", CountryName: "Germany", TaxPercentage: dec("19"), IsActive: true},
	"XX": {CountryCode: "XX", CountryName: "Inactive Land", TaxPercentage: dec("5"), IsActive: false},
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newResolver(usCountry, []models.DeliveryRule{
		rule(1, 3, "ALL", "5.00", true),
		rule(4, 10, "ALL", "8.00", true),
	})

	first, err := r.Resolve(context.Background(), 2, "us")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), 2, "US")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "United States", first.CountryName)
	assert.True(t, first.ShippingCost.Equal(dec("5.00")))
}

func TestCountrySpecificRuleBeatsAll(t *testing.T) {
	r := newResolver(usCountry, []models.DeliveryRule{
		rule(1, 10, "ALL", "8.00", true),
		rule(1, 10, "DE", "12.50", true),
	})

	res, err := r.Resolve(context.Background(), 5, "DE")
	require.NoError(t, err)
	assert.True(t, res.ShippingCost.Equal(dec("12.50")))

	// Other destinations still get the global band.
	res, err = r.Resolve(context.Background(), 5, "US")
	require.NoError(t, err)
	assert.True(t, res.ShippingCost.Equal(dec("8.00")))
}

func TestBandBoundariesAreInclusive(t *testing.T) {
	table := NewDeliveryRuleTable(&stubRuleStore{rules: []models.DeliveryRule{
		rule(1, 3, "ALL", "5.00", true),
		rule(4, 10, "ALL", "8.00", true),
	}})

	got, err := table.Resolve(context.Background(), 3, "US")
	require.NoError(t, err)
	assert.True(t, got.DeliveryCost.Equal(dec("5.00")))

	got, err = table.Resolve(context.Background(), 4, "US")
	require.NoError(t, err)
	assert.True(t, got.DeliveryCost.Equal(dec("8.00")))
}

func TestUnknownCountryIsUnsupported(t *testing.T) {
	r := newResolver(usCountry, []models.DeliveryRule{
		rule(1, 10, "ALL", "8.00", true),
	})

	_, err := r.Resolve(context.Background(), 5, "ZZ")
	assert.ErrorIs(t, err, ErrUnsupportedCountry)
}

func TestInactiveCountryIsUnsupported(t *testing.T) {
	r := newResolver(usCountry, nil)

	_, err := r.Resolve(context.Background(), 1, "XX")
	assert.ErrorIs(t, err, ErrUnsupportedCountry)
}

func TestInactiveRuleFallsThrough(t *testing.T) {
	table := NewDeliveryRuleTable(&stubRuleStore{rules: []models.DeliveryRule{
		rule(1, 10, "DE", "12.50", false),
		rule(1, 10, "ALL", "8.00", true),
	}})

	got, err := table.Resolve(context.Background(), 5, "DE")
	require.NoError(t, err)
	assert.True(t, got.DeliveryCost.Equal(dec("8.00")))
}

func TestNoMatchingBandIsNoDeliveryRule(t *testing.T) {
	table := NewDeliveryRuleTable(&stubRuleStore{rules: []models.DeliveryRule{
		rule(1, 3, "ALL", "5.00", true),
	}})

	_, err := table.Resolve(context.Background(), 11, "US")
	assert.ErrorIs(t, err, ErrNoDeliveryRule)

	_, err = table.Resolve(context.Background(), 0, "US")
	assert.ErrorIs(t, err, ErrNoDeliveryRule)
}

func TestSelectRulePicksLowestMinOnIntegrityViolation(t *testing.T) {
	// Two overlapping same-specificity rules should never exist, but the
	// selector must still answer deterministically.
	candidates := []models.DeliveryRule{
		rule(3, 8, "ALL", "9.00", true),
		rule(1, 5, "ALL", "5.00", true),
	}

	got := SelectRule(candidates, 4)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.MinPieces)
}

func TestQuoteComposition(t *testing.T) {
	res := &Result{
		CountryName:   "United States",
		ShippingCost:  dec("5"),
		TaxPercentage: dec("8"),
	}

	q := res.Quote(dec("100"))
	assert.Equal(t, "8.00", q.TaxAmount.StringFixed(2))
	assert.Equal(t, "113.00", q.Total.StringFixed(2))
	assert.Equal(t, "100.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", q.ShippingCost.StringFixed(2))
}

func TestQuoteRoundsToTwoDecimals(t *testing.T) {
	res := &Result{ShippingCost: dec("4.995"), TaxPercentage: dec("7.25")}

	q := res.Quote(dec("19.99"))
	assert.Equal(t, "1.45", q.TaxAmount.StringFixed(2))  // 19.99 * 7.25% = 1.449275
	assert.Equal(t, "5.00", q.ShippingCost.StringFixed(2))
	assert.Equal(t, "26.44", q.Total.StringFixed(2))
}
