package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/money"
	"github.com/example/velora/internal/utils"
)

// ProductHandler manages product CRUD and the public catalog listing.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated products with optional filters. Public
// callers only see active products; the back office passes include_inactive.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}

	if c.Query("hot_deals") == "true" {
		query = query.Where("is_hot_deal = ?", true).
			Where("hot_deal_ends_at IS NULL OR hot_deal_ends_at > ?", time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a product by ID or slug.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	param := c.Params("id")

	var product models.Product
	query := h.db.Preload("Category")
	if id, err := uuid.Parse(param); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", param)
	}

	if err := query.First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Images      []string `json:"images"`
	Stock       *int     `json:"stock"`
	CategoryID  string   `json:"category_id"`
	IsActive    *bool    `json:"is_active"`
}

func (req *productRequest) apply(product *models.Product) error {
	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Slug != "" {
		product.Slug = req.Slug
	} else if product.Slug == "" {
		product.Slug = utils.Slugify(product.Name)
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != "" {
		price, currency, err := money.ParsePrice(req.Price)
		if err != nil {
			return err
		}
		product.Price = price
		product.Currency = currency
	}
	if req.Images != nil {
		product.Images = pq.StringArray(req.Images)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return err
		}
		product.CategoryID = &id
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	return nil
}

// CreateProduct persists a new product. The price arrives as a display
// string and is normalized into a decimal amount plus currency here.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Price == "" {
		return fiber.NewError(fiber.StatusBadRequest, "price is required")
	}

	product := models.Product{IsActive: true}
	if err := req.apply(&product); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Create(&product).Error; err != nil {
		if isUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "product slug already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct edits a product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := req.apply(&product); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Save(&product).Error; err != nil {
		if isUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "product slug already exists")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product by ID. Order items keep their snapshot
// columns, so past orders are unaffected.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product deleted successfully"})
}

type hotDealRequest struct {
	Price  string     `json:"price"`
	EndsAt *time.Time `json:"ends_at"`
}

// SetHotDeal marks a product as a hot deal with a discounted price.
func (h *ProductHandler) SetHotDeal(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req hotDealRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Price == "" {
		return fiber.NewError(fiber.StatusBadRequest, "price is required")
	}

	price, _, err := money.ParsePrice(req.Price)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if price.GreaterThanOrEqual(product.Price) {
		return fiber.NewError(fiber.StatusBadRequest, "hot deal price must be below the regular price")
	}

	product.IsHotDeal = true
	product.HotDealPrice = &price
	product.HotDealEndsAt = req.EndsAt

	if err := h.db.Save(&product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// RemoveHotDeal clears the hot-deal flag and price.
func (h *ProductHandler) RemoveHotDeal(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_hot_deal":      false,
			"hot_deal_price":   nil,
			"hot_deal_ends_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Hot deal removed"})
}
