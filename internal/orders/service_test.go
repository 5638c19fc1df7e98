package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/pricing"
)

// memStore implements Store in memory.
type memStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	stock  map[uuid.UUID]int

	createErr  error
	stockCalls int
}

func newMemStore() *memStore {
	return &memStore{
		orders: make(map[uuid.UUID]*models.Order),
		stock:  make(map[uuid.UUID]int),
	}
}

func (m *memStore) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *memStore) ByRef(ctx context.Context, ref string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID.String() == ref || o.OrderID == ref || o.PaymentReference == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) List(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) SetPaymentOutcome(ctx context.Context, id uuid.UUID, payment PaymentStatus, status Status, details models.PaymentDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = string(payment)
	o.Status = string(status)
	o.PaymentDetails = details
	return nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = string(status)
	return nil
}

func (m *memStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, payment PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = string(payment)
	return nil
}

func (m *memStore) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.TrackingNumber = trackingNumber
	return nil
}

func (m *memStore) ClaimPaymentEmail(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.Notifications.PaymentEmailSent {
		return false, nil
	}
	o.Notifications.PaymentEmailSent = true
	o.Notifications.PaymentEmailSentAt = &at
	return true, nil
}

func (m *memStore) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockCalls++
	m.stock[productID] -= quantity
	return nil
}

// recordingEmail counts confirmation sends.
type recordingEmail struct {
	mu    sync.Mutex
	sends int
}

func (r *recordingEmail) SendPaymentConfirmation(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends++
	return nil
}

type stubCountries map[string]models.CountryTax

func (s stubCountries) ActiveByCode(ctx context.Context, code string) (*models.CountryTax, error) {
	entry, ok := s[code]
	if !ok || !entry.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}

type stubRules []models.DeliveryRule

func (s stubRules) ActiveCandidates(ctx context.Context, pieces int, country string) ([]models.DeliveryRule, error) {
	var out []models.DeliveryRule
	for _, r := range s {
		if r.IsActive && r.Covers(pieces) && (r.Country == country || r.Country == models.RuleCountryAll) {
			out = append(out, r)
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testResolver() *pricing.Resolver {
	countries := stubCountries{
		"US": {CountryCode: "US", CountryName: "United States", TaxPercentage: dec("8"), IsActive: true},
	}
	rules := stubRules{
		{MinPieces: 1, MaxPieces: 10, Country: models.RuleCountryAll, DeliveryCost: dec("5.00"), IsActive: true},
	}
	return pricing.NewResolver(
		pricing.NewCountryTaxRegistry(countries),
		pricing.NewDeliveryRuleTable(rules),
	)
}

func testService(store Store, email EmailSender) (*Service, *Outbox) {
	outbox := NewOutbox(1)
	return NewService(store, testResolver(), outbox, email, nil), outbox
}

func cardInput() CreateOrderInput {
	productID := uuid.New()
	return CreateOrderInput{
		Customer: models.CustomerInfo{
			Email:     "jo@example.com",
			FirstName: "Jo",
			LastName:  "Doe",
			Address:   "1 Main St",
			City:      "Springfield",
			ZipCode:   "12345",
			Country:   "United States",
		},
		Lines: []CartLine{
			{ProductID: &productID, Name: "Candle", UnitPrice: dec("25.00"), Quantity: 2},
			{ProductID: nil, Name: "Gift wrap", UnitPrice: dec("50.00"), Quantity: 1},
		},
		CountryCode:   "US",
		PaymentMethod: MethodCard,
		Currency:      "USD",
	}
}

func TestCreateOrderComputesTotalsOnce(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	assert.Equal(t, "100.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "8.00", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "5.00", order.ShippingCost.StringFixed(2))
	assert.Equal(t, "113.00", order.Total.StringFixed(2))
	assert.Equal(t, string(StatusPending), order.Status)
	assert.Equal(t, string(PaymentPending), order.PaymentStatus)
	assert.Regexp(t, `^ORD-\d{9}$`, order.OrderID)
	assert.Regexp(t, `^REF-\d{9}$`, order.PaymentReference)
}

func TestCreateOrderFailsAtomicallyOnPricing(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	input := cardInput()
	input.CountryCode = "ZZ"

	_, err := svc.CreateOrder(context.Background(), input)
	assert.ErrorIs(t, err, pricing.ErrUnsupportedCountry)
	assert.Empty(t, store.orders, "no partial order may be written")
}

func TestCreateOrderFailsAtomicallyOnPersistence(t *testing.T) {
	store := newMemStore()
	store.createErr = fmt.Errorf("connection reset")
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	_, err := svc.CreateOrder(context.Background(), cardInput())
	assert.Error(t, err)
}

func TestCashOnDeliveryStaysPending(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	input := cardInput()
	input.PaymentMethod = MethodCashOnDelivery

	order, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, string(PaymentPending), order.PaymentStatus)

	// Nothing in the core ever auto-transitions a COD order to paid.
	got, err := svc.Get(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, string(PaymentPending), got.PaymentStatus)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	store := newMemStore()
	email := &recordingEmail{}
	svc, outbox := testService(store, email)

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	first, err := svc.ConfirmPayment(context.Background(), order.OrderID, "Authorised", models.PaymentDetails{StripePaymentIntentID: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, string(PaymentPaid), first.PaymentStatus)
	assert.Equal(t, string(StatusConfirmed), first.Status)

	second, err := svc.ConfirmPayment(context.Background(), order.OrderID, "Authorised", models.PaymentDetails{StripePaymentIntentID: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, string(PaymentPaid), second.PaymentStatus)

	outbox.Close()

	assert.Equal(t, 1, email.sends, "exactly one confirmation email")
	assert.Equal(t, 1, store.stockCalls, "exactly one stock decrement")
}

func TestConfirmPaymentIntermediateStatus(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	got, err := svc.ConfirmPayment(context.Background(), order.OrderID, "Pending", models.PaymentDetails{})
	require.NoError(t, err)
	assert.Equal(t, string(PaymentProcessing), got.PaymentStatus)
	assert.Equal(t, string(StatusPending), got.Status)
}

func TestConfirmPaymentNeverDowngradesPaid(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), order.OrderID, "succeeded", models.PaymentDetails{})
	require.NoError(t, err)

	// A stale "processing" event after settlement must not move the state.
	got, err := svc.ConfirmPayment(context.Background(), order.OrderID, "processing", models.PaymentDetails{})
	require.NoError(t, err)
	assert.Equal(t, string(PaymentPaid), got.PaymentStatus)
}

func TestConfirmPaymentDoesNotResurrectRefundedOrder(t *testing.T) {
	store := newMemStore()
	email := &recordingEmail{}
	svc, outbox := testService(store, email)

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), order.OrderID, "succeeded", models.PaymentDetails{StripePaymentIntentID: "pi_123"})
	require.NoError(t, err)

	_, err = svc.SetPaymentStatus(context.Background(), order.OrderID, PaymentRefunded)
	require.NoError(t, err)

	// A replayed success event for the settled intent must not undo the refund.
	got, err := svc.ConfirmPayment(context.Background(), order.OrderID, "succeeded", models.PaymentDetails{StripePaymentIntentID: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, string(PaymentRefunded), got.PaymentStatus)

	stored, err := svc.Get(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, string(PaymentRefunded), stored.PaymentStatus)

	outbox.Close()
	assert.Equal(t, 1, email.sends, "the replay must not queue side effects")
}

func TestConfirmPaymentDoesNotPromoteFailedOrder(t *testing.T) {
	store := newMemStore()
	email := &recordingEmail{}
	svc, outbox := testService(store, email)

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), order.OrderID, "Refused", models.PaymentDetails{})
	require.NoError(t, err)

	// Failed has no direct edge to paid; a retry goes back through pending.
	got, err := svc.ConfirmPayment(context.Background(), order.OrderID, "succeeded", models.PaymentDetails{})
	require.NoError(t, err)
	assert.Equal(t, string(PaymentFailed), got.PaymentStatus)

	outbox.Close()
	assert.Equal(t, 0, email.sends)
	assert.Equal(t, 0, store.stockCalls)
}

func TestSetStatusValidatesTransition(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), order.OrderID, StatusShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := svc.SetStatus(context.Background(), order.OrderID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, string(StatusConfirmed), got.Status)

	got, err = svc.SetStatus(context.Background(), order.OrderID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, string(StatusCancelled), got.Status)
}

func TestOperatorMarksCashCollected(t *testing.T) {
	store := newMemStore()
	email := &recordingEmail{}
	svc, outbox := testService(store, email)

	input := cardInput()
	input.PaymentMethod = MethodCashOnDelivery
	order, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	got, err := svc.SetPaymentStatus(context.Background(), order.OrderID, PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, string(PaymentPaid), got.PaymentStatus)

	// Repeating the action is rejected as a transition but harmless.
	_, err = svc.SetPaymentStatus(context.Background(), order.OrderID, PaymentPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	outbox.Close()
	assert.Equal(t, 1, email.sends)
}

func TestSetTracking(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	order, err := svc.CreateOrder(context.Background(), cardInput())
	require.NoError(t, err)

	got, err := svc.SetTracking(context.Background(), order.OrderID, "1Z999AA10123456784")
	require.NoError(t, err)
	assert.Equal(t, "1Z999AA10123456784", got.TrackingNumber)
}

func TestGetUnknownOrder(t *testing.T) {
	store := newMemStore()
	svc, outbox := testService(store, nil)
	defer outbox.Close()

	_, err := svc.Get(context.Background(), "ORD-000000000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
