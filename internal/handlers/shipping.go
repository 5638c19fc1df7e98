package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/pricing"
)

// ShippingHandler manages the admin-owned pricing tables: country tax
// entries and delivery rules. The checkout core only ever reads them.
type ShippingHandler struct {
	db    *gorm.DB
	rules *pricing.DeliveryRuleTable
}

// NewShippingHandler constructs ShippingHandler.
func NewShippingHandler(db *gorm.DB, rules *pricing.DeliveryRuleTable) *ShippingHandler {
	return &ShippingHandler{db: db, rules: rules}
}

// ---- Countries ----

type countryRequest struct {
	CountryCode   string           `json:"country_code"`
	CountryName   string           `json:"country_name"`
	BaseCost      *decimal.Decimal `json:"base_cost"`
	TaxPercentage *decimal.Decimal `json:"tax_percentage"`
	IsActive      *bool            `json:"is_active"`
}

// ListCountries returns every country entry, active or not.
func (h *ShippingHandler) ListCountries(c *fiber.Ctx) error {
	var countries []models.CountryTax
	if err := h.db.Order("country_name asc").Find(&countries).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": countries})
}

// CreateCountry adds a destination with its tax percentage.
func (h *ShippingHandler) CreateCountry(c *fiber.Ctx) error {
	var req countryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	entry := models.CountryTax{
		CountryCode: pricing.NormalizeCountryCode(req.CountryCode),
		CountryName: strings.TrimSpace(req.CountryName),
		IsActive:    true,
	}
	if req.BaseCost != nil {
		entry.BaseCost = *req.BaseCost
	}
	if req.TaxPercentage != nil {
		entry.TaxPercentage = *req.TaxPercentage
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := pricing.ValidateCountry(entry); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Create(&entry).Error; err != nil {
		if isUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "country already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Country added successfully",
		"data":    entry,
	})
}

// UpdateCountry edits a destination entry.
func (h *ShippingHandler) UpdateCountry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var entry models.CountryTax
	if err := h.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "country not found")
		}
		return err
	}

	var req countryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CountryCode != "" {
		entry.CountryCode = pricing.NormalizeCountryCode(req.CountryCode)
	}
	if req.CountryName != "" {
		entry.CountryName = strings.TrimSpace(req.CountryName)
	}
	if req.BaseCost != nil {
		entry.BaseCost = *req.BaseCost
	}
	if req.TaxPercentage != nil {
		entry.TaxPercentage = *req.TaxPercentage
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := pricing.ValidateCountry(entry); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Save(&entry).Error; err != nil {
		if isUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "country already exists")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": entry})
}

// DeleteCountry removes a destination. Entries still referenced by order
// snapshots are kept so historic orders stay explainable.
func (h *ShippingHandler) DeleteCountry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var entry models.CountryTax
	if err := h.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "country not found")
		}
		return err
	}

	var referencing int64
	if err := h.db.Model(&models.Order{}).
		Where("customer_country = ?", entry.CountryName).
		Count(&referencing).Error; err != nil {
		return err
	}
	if referencing > 0 {
		return fiber.NewError(fiber.StatusConflict, "country is referenced by existing orders; deactivate it instead")
	}

	if err := h.db.Delete(&entry).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "Country deleted successfully"})
}

// ---- Delivery rules ----

type deliveryRuleRequest struct {
	MinPieces    *int             `json:"min_pieces"`
	MaxPieces    *int             `json:"max_pieces"`
	DeliveryCost *decimal.Decimal `json:"delivery_cost"`
	Description  string           `json:"description"`
	Country      string           `json:"country"`
	IsActive     *bool            `json:"is_active"`
}

// ListRules returns all delivery rules ordered by band.
func (h *ShippingHandler) ListRules(c *fiber.Ctx) error {
	var rules []models.DeliveryRule
	if err := h.db.Order("country asc, min_pieces asc").Find(&rules).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": rules})
}

// CreateRule adds a delivery band after overlap validation.
func (h *ShippingHandler) CreateRule(c *fiber.Ctx) error {
	var req deliveryRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	rule := models.DeliveryRule{
		Description: strings.TrimSpace(req.Description),
		Country:     models.RuleCountryAll,
		IsActive:    true,
	}
	if req.MinPieces != nil {
		rule.MinPieces = *req.MinPieces
	}
	if req.MaxPieces != nil {
		rule.MaxPieces = *req.MaxPieces
	}
	if req.DeliveryCost != nil {
		rule.DeliveryCost = *req.DeliveryCost
	}
	if req.Country != "" {
		rule.Country = pricing.NormalizeCountryCode(req.Country)
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := pricing.ValidateRule(c.Context(), h.db, rule); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Create(&rule).Error; err != nil {
		if isUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "an identical rule already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Delivery rule created successfully",
		"data":    rule,
	})
}

// UpdateRule edits a delivery band, re-validating overlap.
func (h *ShippingHandler) UpdateRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var rule models.DeliveryRule
	if err := h.db.First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "delivery rule not found")
		}
		return err
	}

	var req deliveryRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.MinPieces != nil {
		rule.MinPieces = *req.MinPieces
	}
	if req.MaxPieces != nil {
		rule.MaxPieces = *req.MaxPieces
	}
	if req.DeliveryCost != nil {
		rule.DeliveryCost = *req.DeliveryCost
	}
	if req.Description != "" {
		rule.Description = strings.TrimSpace(req.Description)
	}
	if req.Country != "" {
		rule.Country = pricing.NormalizeCountryCode(req.Country)
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := pricing.ValidateRule(c.Context(), h.db, rule); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Save(&rule).Error; err != nil {
		if isUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "an identical rule already exists")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": rule})
}

// DeleteRule removes a delivery band.
func (h *ShippingHandler) DeleteRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.DeliveryRule{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "Delivery rule deleted successfully"})
}

type calculateRuleRequest struct {
	Pieces  int    `json:"pieces"`
	Country string `json:"country"`
}

// CalculateRule is an admin probe: which rule would this piece count hit?
func (h *ShippingHandler) CalculateRule(c *fiber.Ctx) error {
	var req calculateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	rule, err := h.rules.Resolve(c.Context(), req.Pieces, req.Country)
	if err != nil {
		if errors.Is(err, pricing.ErrNoDeliveryRule) {
			return fiber.NewError(fiber.StatusNotFound, "no delivery rule found for this piece count")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": rule})
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
