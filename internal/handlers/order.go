package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/money"
	"github.com/example/velora/internal/orders"
	"github.com/example/velora/internal/pricing"
	"github.com/example/velora/internal/services"
	"github.com/example/velora/internal/utils"
)

// OrderHandler manages storefront order endpoints.
type OrderHandler struct {
	service  *orders.Service
	stripe   *services.StripeService
	currency string
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(service *orders.Service, stripe *services.StripeService, currency string) *OrderHandler {
	return &OrderHandler{service: service, stripe: stripe, currency: currency}
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
}

type createOrderRequest struct {
	Customer      models.CustomerInfo `json:"customer"`
	Items         []orderItemRequest  `json:"items"`
	CountryCode   string              `json:"country_code"`
	PaymentMethod string              `json:"payment_method"`
}

// CreateOrder prices the cart and persists the order in one step. Cart line
// prices arrive as display strings and are parsed here, at the boundary.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	method := orders.PaymentMethod(req.PaymentMethod)
	if req.PaymentMethod == "" {
		method = orders.MethodCard
	}

	lines := make([]orders.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice, currency, err := money.ParsePrice(item.Price)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid item price: "+item.Price)
		}

		line := orders.CartLine{
			Name:      item.Name,
			UnitPrice: unitPrice,
			Currency:  currency,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
		if item.ProductID != "" {
			if id, err := uuid.Parse(item.ProductID); err == nil {
				line.ProductID = &id
			}
		}
		lines = append(lines, line)
	}

	order, err := h.service.CreateOrder(c.Context(), orders.CreateOrderInput{
		Customer:      req.Customer,
		Lines:         lines,
		CountryCode:   req.CountryCode,
		PaymentMethod: method,
		Currency:      h.currency,
	})
	if err != nil {
		return mapOrderError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order created successfully",
		"data":    order,
	})
}

type confirmPaymentRequest struct {
	OrderRef        string `json:"order_ref"`
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentResult   struct {
		ResultCode string `json:"resultCode"`
	} `json:"payment_result"`
}

// ConfirmPayment applies a provider confirmation to an order. When a
// PaymentIntent id is supplied the status is re-read from Stripe; a
// client-reported result code is only used for alternative drop-in
// providers that have no server-side lookup.
func (h *OrderHandler) ConfirmPayment(c *fiber.Ctx) error {
	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderRef == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_ref is required")
	}

	providerStatus := req.PaymentResult.ResultCode
	details := models.PaymentDetails{}

	if req.PaymentIntentID != "" && h.stripe.Configured() {
		status, d, err := h.stripe.RetrieveConfirmation(req.PaymentIntentID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "payment provider error, please retry")
		}
		providerStatus = status
		details = d
	}

	if providerStatus == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payment result is required")
	}

	order, err := h.service.ConfirmPayment(c.Context(), req.OrderRef, providerStatus, details)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// GetOrder returns a single order snapshot by id or reference.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns paginated orders for the back office.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	list, total, err := h.service.List(c.Context(), c.Query("status"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

func mapOrderError(err error) error {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidMethod):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, pricing.ErrUnsupportedCountry),
		errors.Is(err, pricing.ErrNoDeliveryRule):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return err
}
