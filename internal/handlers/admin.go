package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/velora/internal/config"
	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/orders"
	"github.com/example/velora/internal/utils"
)

// AdminHandler bundles back-office endpoints: auth, dashboard and the
// operator side of the order lifecycle.
type AdminHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	service *orders.Service
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config, service *orders.Service) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an admin and issues a JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var admin models.AdminUser
	if err := h.db.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, admin.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token": token,
			"admin": fiber.Map{
				"id":    admin.ID,
				"name":  admin.Name,
				"email": admin.Email,
			},
		},
	})
}

type seedRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Seed creates the first admin account. Refused once any admin exists.
func (h *AdminHandler) Seed(c *fiber.Ctx) error {
	var count int64
	if err := h.db.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusForbidden, "admin account already exists")
	}

	var req seedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	admin := models.AdminUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "admin",
	}
	if err := h.db.Create(&admin).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Admin account created",
		"data":    fiber.Map{"id": admin.ID, "email": admin.Email},
	})
}

// DashboardStats returns aggregate statistics for the admin dashboard.
// Revenue only counts paid orders; a pending card order is not money.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("payment_status = ?", string(orders.PaymentPaid)).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var todayRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("payment_status = ? AND placed_at::date = CURRENT_DATE", string(orders.PaymentPaid)).
		Select("COALESCE(SUM(total), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	var pendingOrders int64
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", string(orders.StatusPending)).
		Count(&pendingOrders).Error; err != nil {
		return err
	}

	var recent []models.Order
	if err := h.db.Preload("Items").
		Order("placed_at desc").
		Limit(5).
		Find(&recent).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_orders":     totalOrders,
			"total_products":   totalProducts,
			"pending_orders":   pendingOrders,
			"total_revenue":    totalRevenue,
			"today_revenue":    todayRevenue,
			"orders_by_status": ordersByStatus,
			"recent_orders":    recent,
		},
	})
}

// Analytics returns daily revenue and order-count buckets over a period
// (:period is day, week, month or year).
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	var since time.Time
	now := time.Now()
	switch c.Params("period") {
	case "day":
		since = now.AddDate(0, 0, -1)
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, -1, 0)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "period must be day, week, month or year")
	}

	type bucket struct {
		Day     time.Time `json:"day"`
		Orders  int64     `json:"orders"`
		Revenue float64   `json:"revenue"`
	}
	var buckets []bucket
	if err := h.db.Model(&models.Order{}).
		Select("date_trunc('day', placed_at) as day, count(*) as orders, COALESCE(SUM(total) FILTER (WHERE payment_status = ?), 0) as revenue", string(orders.PaymentPaid)).
		Where("placed_at >= ?", since).
		Group("day").
		Order("day asc").
		Scan(&buckets).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"period": c.Params("period"),
			"since":  since,
			"series": buckets,
		},
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves the fulfillment dimension one validated step.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next := orders.Status(req.Status)
	if !next.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown status")
	}

	order, err := h.service.SetStatus(c.Context(), c.Params("id"), next)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// UpdatePaymentStatus is the operator path for the payment dimension,
// e.g. recording a cash-on-delivery collection.
func (h *AdminHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	var req updatePaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next := orders.PaymentStatus(req.PaymentStatus)
	if !next.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown payment status")
	}

	order, err := h.service.SetPaymentStatus(c.Context(), c.Params("id"), next)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

// SetTracking records the carrier tracking number for an order.
func (h *AdminHandler) SetTracking(c *fiber.Ctx) error {
	var req trackingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.TrackingNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "tracking_number is required")
	}

	order, err := h.service.SetTracking(c.Context(), c.Params("id"), req.TrackingNumber)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
