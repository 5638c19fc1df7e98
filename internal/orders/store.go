package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/velora/internal/models"
)

// Store persists orders. The service only ever writes through it, so tests
// can swap in an in-memory implementation.
type Store interface {
	Create(ctx context.Context, order *models.Order) error
	ByRef(ctx context.Context, ref string) (*models.Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error)

	// SetPaymentOutcome durably records the payment result before any side
	// effect runs.
	SetPaymentOutcome(ctx context.Context, id uuid.UUID, payment PaymentStatus, status Status, details models.PaymentDetails) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, payment PaymentStatus) error

	SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string) error

	// ClaimPaymentEmail flips the notification flag exactly once; the caller
	// that wins the claim owns the post-payment side effects.
	ClaimPaymentEmail(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// ByRef accepts an internal UUID, a public ORD- reference or a REF- payment
// reference.
func (s *GormStore) ByRef(ctx context.Context, ref string) (*models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Items")

	if id, err := uuid.Parse(ref); err == nil {
		var order models.Order
		if err := query.First(&order, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &order, nil
	}

	var order models.Order
	if err := query.
		First(&order, "order_id = ? OR payment_reference = ?", ref, ref).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) List(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (s *GormStore) SetPaymentOutcome(ctx context.Context, id uuid.UUID, payment PaymentStatus, status Status, details models.PaymentDetails) error {
	return s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status":                  string(payment),
			"status":                          string(status),
			"payment_stripe_payment_intent_id": details.StripePaymentIntentID,
			"payment_stripe_customer_id":       details.StripeCustomerID,
			"payment_payment_method_detail":    details.PaymentMethodDetail,
			"payment_receipt_url":              details.ReceiptURL,
			"payment_provider_status":          details.ProviderStatus,
		}).Error
}

func (s *GormStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

func (s *GormStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, payment PaymentStatus) error {
	return s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", string(payment)).Error
}

func (s *GormStore) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string) error {
	return s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("tracking_number", trackingNumber).Error
}

func (s *GormStore) ClaimPaymentEmail(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND notify_payment_email_sent = ?", id, false).
		Updates(map[string]any{
			"notify_payment_email_sent":    true,
			"notify_payment_email_sent_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	return s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity)).Error
}
