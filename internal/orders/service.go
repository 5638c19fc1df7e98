package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/money"
	"github.com/example/velora/internal/pricing"
	"github.com/example/velora/internal/utils"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("line quantity must be at least 1")
	ErrInvalidMethod     = errors.New("unknown payment method")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// EmailSender delivers the customer confirmation mail. Best effort only.
type EmailSender interface {
	SendPaymentConfirmation(ctx context.Context, order *models.Order) error
}

// AdminNotifier pings the back office about new orders. Best effort only.
type AdminNotifier interface {
	NotifyNewOrder(ctx context.Context, order *models.Order) error
	NotifyPaymentReceived(ctx context.Context, order *models.Order) error
}

// CartLine is one client-held cart entry with its price already parsed into
// a decimal at the boundary.
type CartLine struct {
	ProductID *uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Currency  string
	Quantity  int
	Image     string
}

// CreateOrderInput carries everything checkout collected.
type CreateOrderInput struct {
	Customer      models.CustomerInfo
	Lines         []CartLine
	CountryCode   string
	PaymentMethod PaymentMethod
	Currency      string
}

// Service owns the order lifecycle: creation atomic with pricing, payment
// confirmation, and the two status dimensions.
type Service struct {
	store    Store
	resolver *pricing.Resolver
	outbox   *Outbox
	email    EmailSender
	notifier AdminNotifier
}

func NewService(store Store, resolver *pricing.Resolver, outbox *Outbox, email EmailSender, notifier AdminNotifier) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		outbox:   outbox,
		email:    email,
		notifier: notifier,
	}
}

// CreateOrder resolves pricing and persists the order as one step. If
// resolution fails nothing is written; a priced-but-unsaved or
// saved-but-unpriced order cannot exist. Orders start pending/pending
// regardless of payment method.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if !input.PaymentMethod.Valid() {
		return nil, ErrInvalidMethod
	}
	if len(input.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	pieces := 0
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		pieces += line.Quantity

		lineTotal := money.Round(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		subtotal = subtotal.Add(lineTotal)

		currency := line.Currency
		if currency == "" {
			currency = input.Currency
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: money.Round(line.UnitPrice),
			Currency:  currency,
			Quantity:  line.Quantity,
			Image:     line.Image,
			LineTotal: lineTotal,
		})
	}

	result, err := s.resolver.Resolve(ctx, pieces, input.CountryCode)
	if err != nil {
		return nil, err
	}
	quote := result.Quote(subtotal)

	ref := utils.NewOrderReference()
	order := &models.Order{
		OrderID:          ref.OrderID,
		PaymentReference: ref.PaymentReference,
		Customer:         input.Customer,
		Items:            items,
		Subtotal:         quote.Subtotal,
		ShippingCost:     quote.ShippingCost,
		TaxAmount:        quote.TaxAmount,
		TaxPercentage:    quote.TaxPercentage,
		Total:            quote.Total,
		Currency:         input.Currency,
		Status:           string(StatusPending),
		PaymentStatus:    string(PaymentPending),
		PaymentMethod:    string(input.PaymentMethod),
		PlacedAt:         time.Now(),
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if s.notifier != nil {
		snapshot := *order
		s.outbox.Enqueue(Task{
			Name: "admin-new-order",
			Run: func(ctx context.Context) error {
				return s.notifier.NotifyNewOrder(ctx, &snapshot)
			},
		})
	}

	return order, nil
}

// Get returns an order by UUID, ORD- reference or payment reference.
func (s *Service) Get(ctx context.Context, ref string) (*models.Order, error) {
	order, err := s.store.ByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// List returns orders for the back office.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	return s.store.List(ctx, status, limit, offset)
}

// ConfirmPayment applies a payment-provider result to an order. Only an
// affirmative provider status yields paid; intermediate states map to
// processing. Confirming an already-paid order is a business no-op: the
// status stays paid and the notification claim prevents a second email or
// stock decrement. A paid signal against a refunded or failed order is
// ignored outright; neither state has an edge back to paid, so a replayed
// success event cannot resurrect a refund. The paid write is durable before
// any side effect runs.
func (s *Service) ConfirmPayment(ctx context.Context, ref string, providerStatus string, details models.PaymentDetails) (*models.Order, error) {
	order, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	mapped := PaymentStatusFromProvider(providerStatus)
	current := PaymentStatus(order.PaymentStatus)
	details.ProviderStatus = providerStatus

	if mapped != PaymentPaid {
		if current.CanTransitionTo(mapped) {
			if err := s.store.SetPaymentOutcome(ctx, order.ID, mapped, Status(order.Status), details); err != nil {
				return nil, err
			}
			order.PaymentStatus = string(mapped)
			order.PaymentDetails = details
		} else {
			log.Printf("[Orders] ignoring provider status %q for order %s in payment state %s", providerStatus, order.OrderID, current)
		}
		return order, nil
	}

	if current != PaymentPaid {
		if !current.CanTransitionTo(PaymentPaid) {
			log.Printf("[Orders] ignoring provider status %q for order %s in payment state %s", providerStatus, order.OrderID, current)
			return order, nil
		}
		next := Status(order.Status)
		if next == StatusPending {
			next = StatusConfirmed
		}
		if err := s.store.SetPaymentOutcome(ctx, order.ID, PaymentPaid, next, details); err != nil {
			return nil, err
		}
		order.PaymentStatus = string(PaymentPaid)
		order.Status = string(next)
		order.PaymentDetails = details
	}

	s.dispatchPaymentSideEffects(ctx, order)
	return order, nil
}

// dispatchPaymentSideEffects claims the notification flag and, on winning
// the claim, queues the best-effort follow-ups. A lost claim means another
// confirmation already handled them.
func (s *Service) dispatchPaymentSideEffects(ctx context.Context, order *models.Order) {
	claimed, err := s.store.ClaimPaymentEmail(ctx, order.ID, time.Now())
	if err != nil {
		log.Printf("[Orders] notification claim failed for order %s: %v", order.OrderID, err)
		return
	}
	if !claimed {
		return
	}

	snapshot := *order
	now := time.Now()
	snapshot.Notifications.PaymentEmailSent = true
	snapshot.Notifications.PaymentEmailSentAt = &now

	if s.email != nil {
		s.outbox.Enqueue(Task{
			Name: "payment-confirmation-email",
			Run: func(ctx context.Context) error {
				return s.email.SendPaymentConfirmation(ctx, &snapshot)
			},
		})
	}

	for _, item := range snapshot.Items {
		if item.ProductID == nil {
			continue
		}
		productID := *item.ProductID
		quantity := item.Quantity
		s.outbox.Enqueue(Task{
			Name: "stock-decrement",
			Run: func(ctx context.Context) error {
				return s.store.DecrementStock(ctx, productID, quantity)
			},
		})
	}

	if s.notifier != nil {
		s.outbox.Enqueue(Task{
			Name: "admin-payment-received",
			Run: func(ctx context.Context) error {
				return s.notifier.NotifyPaymentReceived(ctx, &snapshot)
			},
		})
	}
}

// SetStatus moves the fulfillment dimension, validating the edge.
func (s *Service) SetStatus(ctx context.Context, ref string, next Status) (*models.Order, error) {
	order, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	current := Status(order.Status)
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if err := s.store.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, err
	}
	order.Status = string(next)
	return order, nil
}

// SetTracking records the carrier tracking number for a shipped order.
func (s *Service) SetTracking(ctx context.Context, ref, trackingNumber string) (*models.Order, error) {
	order, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetTracking(ctx, order.ID, trackingNumber); err != nil {
		return nil, err
	}
	order.TrackingNumber = trackingNumber
	return order, nil
}

// SetPaymentStatus is the operator path, e.g. marking a cash-on-delivery
// order collected. Moving to paid goes through the confirmation flow so the
// side effects stay exactly-once.
func (s *Service) SetPaymentStatus(ctx context.Context, ref string, next PaymentStatus) (*models.Order, error) {
	order, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	current := PaymentStatus(order.PaymentStatus)
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if next == PaymentPaid {
		return s.ConfirmPayment(ctx, ref, "Authorised", models.PaymentDetails{PaymentMethodDetail: "operator"})
	}

	if err := s.store.UpdatePaymentStatus(ctx, order.ID, next); err != nil {
		return nil, err
	}
	order.PaymentStatus = string(next)
	return order, nil
}
