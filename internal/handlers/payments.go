package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/example/velora/internal/orders"
	"github.com/example/velora/internal/services"
)

// PaymentsHandler manages the Stripe card-payment path.
type PaymentsHandler struct {
	service       *orders.Service
	stripe        *services.StripeService
	webhookSecret string
}

// NewPaymentsHandler constructs PaymentsHandler.
func NewPaymentsHandler(service *orders.Service, stripe *services.StripeService, webhookSecret string) *PaymentsHandler {
	return &PaymentsHandler{service: service, stripe: stripe, webhookSecret: webhookSecret}
}

type createIntentRequest struct {
	OrderRef string `json:"order_ref"`
}

// CreateIntent opens a PaymentIntent for an existing pending order. The
// amount comes from the persisted order snapshot, never from the client.
func (h *PaymentsHandler) CreateIntent(c *fiber.Ctx) error {
	var req createIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderRef == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_ref is required")
	}

	order, err := h.service.Get(c.Context(), req.OrderRef)
	if err != nil {
		return mapOrderError(err)
	}

	if order.PaymentMethod != string(orders.MethodCard) {
		return fiber.NewError(fiber.StatusBadRequest, "order is not payable by card")
	}
	if order.PaymentStatus == string(orders.PaymentPaid) {
		return fiber.NewError(fiber.StatusConflict, "order is already paid")
	}

	result, err := h.stripe.CreatePaymentIntent(order.Total, order.Currency, map[string]string{
		"order_id":          order.OrderID,
		"payment_reference": order.PaymentReference,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "payment provider error, please retry")
	}

	return c.JSON(fiber.Map{"success": true, "data": result})
}

// Webhook receives Stripe events. The event body is unauthenticated input:
// when a webhook secret is configured the signature is verified first, and
// in every case only a server-side re-read of the PaymentIntent may move an
// order. An event that cannot be re-read is acknowledged without action.
func (h *PaymentsHandler) Webhook(c *fiber.Ctx) error {
	var event stripe.Event
	if h.webhookSecret != "" {
		verified, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.webhookSecret)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid webhook signature")
		}
		event = verified
	} else if err := json.Unmarshal(c.Body(), &event); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event payload")
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payment intent payload")
		}

		orderRef := pi.Metadata["order_id"]
		if orderRef == "" {
			log.Printf("[Stripe] event %s has no order_id metadata, ignoring", event.ID)
			return c.JSON(fiber.Map{"received": true})
		}

		if !h.stripe.Configured() {
			log.Printf("[Stripe] not configured, ignoring event %s for order %s", event.ID, orderRef)
			return c.JSON(fiber.Map{"received": true})
		}

		providerStatus, details, err := h.stripe.RetrieveConfirmation(pi.ID)
		if err != nil {
			log.Printf("[Stripe] re-retrieve of %s failed, acknowledging event %s without action: %v", pi.ID, event.ID, err)
			return c.JSON(fiber.Map{"received": true})
		}

		if _, err := h.service.ConfirmPayment(c.Context(), orderRef, providerStatus, details); err != nil {
			log.Printf("[Stripe] confirmation for order %s failed: %v", orderRef, err)
			return mapOrderError(err)
		}

	default:
		log.Printf("[Stripe] unhandled event type %s", event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}
