package pricing

import (
	"context"
	"log"
	"sort"

	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
)

// RuleStore loads admin-managed delivery rules.
type RuleStore interface {
	// ActiveCandidates returns every active rule whose band covers pieces
	// and whose country is the given uppercase code or ALL.
	ActiveCandidates(ctx context.Context, pieces int, country string) ([]models.DeliveryRule, error)
}

// DeliveryRuleTable resolves a piece count and destination to a single rule.
type DeliveryRuleTable struct {
	store RuleStore
}

func NewDeliveryRuleTable(store RuleStore) *DeliveryRuleTable {
	return &DeliveryRuleTable{store: store}
}

// Resolve picks the rule for the order. A country-specific rule always beats
// an ALL rule regardless of band width or recency. No match is
// ErrNoDeliveryRule.
func (t *DeliveryRuleTable) Resolve(ctx context.Context, pieces int, countryCode string) (*models.DeliveryRule, error) {
	if pieces < 1 {
		return nil, ErrNoDeliveryRule
	}

	candidates, err := t.store.ActiveCandidates(ctx, pieces, NormalizeCountryCode(countryCode))
	if err != nil {
		return nil, err
	}

	rule := SelectRule(candidates, pieces)
	if rule == nil {
		return nil, ErrNoDeliveryRule
	}
	return rule, nil
}

// SelectRule applies the precedence rule to an already-filtered candidate
// set: country-specific first, then lowest MinPieces for determinism.
// Multiple matches at the winning specificity violate the non-overlap
// invariant; that is a data bug to log, not to crash on.
func SelectRule(candidates []models.DeliveryRule, pieces int) *models.DeliveryRule {
	var specific, global []models.DeliveryRule
	for _, r := range candidates {
		if !r.IsActive || !r.Covers(pieces) {
			continue
		}
		if r.CountrySpecific() {
			specific = append(specific, r)
		} else {
			global = append(global, r)
		}
	}

	winners := specific
	if len(winners) == 0 {
		winners = global
	}
	if len(winners) == 0 {
		return nil
	}

	sort.Slice(winners, func(i, j int) bool {
		return winners[i].MinPieces < winners[j].MinPieces
	})

	if len(winners) > 1 {
		log.Printf("[Pricing] data integrity: %d overlapping delivery rules cover %d pieces for country %q; using band starting at %d",
			len(winners), pieces, winners[0].Country, winners[0].MinPieces)
	}

	return &winners[0]
}

// GormRuleStore is the Postgres-backed RuleStore.
type GormRuleStore struct {
	db *gorm.DB
}

func NewGormRuleStore(db *gorm.DB) *GormRuleStore {
	return &GormRuleStore{db: db}
}

func (s *GormRuleStore) ActiveCandidates(ctx context.Context, pieces int, country string) ([]models.DeliveryRule, error) {
	var rules []models.DeliveryRule
	if err := s.db.WithContext(ctx).
		Where("min_pieces <= ? AND max_pieces >= ? AND is_active = ? AND country IN ?",
			pieces, pieces, true, []string{country, models.RuleCountryAll}).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
