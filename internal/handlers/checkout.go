package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/pricing"
)

// CheckoutHandler exposes the pricing resolver to the storefront.
type CheckoutHandler struct {
	db       *gorm.DB
	resolver *pricing.Resolver
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(db *gorm.DB, resolver *pricing.Resolver) *CheckoutHandler {
	return &CheckoutHandler{db: db, resolver: resolver}
}

type calculateCheckoutRequest struct {
	Pieces      int    `json:"pieces"`
	CountryCode string `json:"country_code"`
}

// Calculate resolves shipping cost and tax for a cart before payment.
// Resolution failures block checkout; no default cost is ever returned.
func (h *CheckoutHandler) Calculate(c *fiber.Ctx) error {
	var req calculateCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CountryCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "country code is required")
	}
	if req.Pieces < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "pieces must be at least 1")
	}

	result, err := h.resolver.Resolve(c.Context(), req.Pieces, req.CountryCode)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrUnsupportedCountry):
			return fiber.NewError(fiber.StatusNotFound, pricing.ErrUnsupportedCountry.Error())
		case errors.Is(err, pricing.ErrNoDeliveryRule):
			return fiber.NewError(fiber.StatusNotFound, pricing.ErrNoDeliveryRule.Error())
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"country":              result.CountryName,
			"shipping_cost":        result.ShippingCost,
			"tax_percentage":       result.TaxPercentage,
			"delivery_description": result.DeliveryDescription,
		},
	})
}

// ListCountries returns the active destinations for the country selector.
func (h *CheckoutHandler) ListCountries(c *fiber.Ctx) error {
	var countries []models.CountryTax
	if err := h.db.
		Select("id", "country_code", "country_name").
		Where("is_active = ?", true).
		Order("country_name asc").
		Find(&countries).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": countries})
}
