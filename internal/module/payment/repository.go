package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for payment data access. The
// multi-record writers are each a single committed unit: either every
// record in the call is persisted or none is.
type Repository interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetRefundByPayment(ctx context.Context, paymentID uuid.UUID) (*Refund, error)

	// CreatePaymentWithOrder inserts a new payment together with its
	// implicitly created order. Returns ErrOrderConflict if the order
	// already exists.
	CreatePaymentWithOrder(ctx context.Context, p *Payment, o *Order) error

	// CreateReissue retires the old payment and inserts its
	// replacement in one transaction.
	CreateReissue(ctx context.Context, retired, replacement *Payment) error

	// SaveRefund updates the refunded payment and writes its refund
	// audit record in one transaction.
	SaveRefund(ctx context.Context, p *Payment, r *Refund) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *repository) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error) {
	var payments []*Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments by order: %w", err)
	}
	return payments, nil
}

func (r *repository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *repository) GetRefundByPayment(ctx context.Context, paymentID uuid.UUID) (*Refund, error) {
	var ref Refund
	err := r.db.WithContext(ctx).First(&ref, "payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("get refund by payment: %w", err)
	}
	return &ref, nil
}

func (r *repository) CreatePaymentWithOrder(ctx context.Context, p *Payment, o *Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return tx.Create(p).Error
	})
	if err != nil {
		// The order primary key backs the one-live-payment rule.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrOrderConflict
		}
		return fmt.Errorf("create payment with order: %w", err)
	}
	return nil
}

func (r *repository) CreateReissue(ctx context.Context, retired, replacement *Payment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(retired).Error; err != nil {
			return err
		}
		return tx.Create(replacement).Error
	})
	if err != nil {
		return fmt.Errorf("create reissue: %w", err)
	}
	return nil
}

func (r *repository) SaveRefund(ctx context.Context, p *Payment, ref *Refund) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return tx.Create(ref).Error
	})
	if err != nil {
		return fmt.Errorf("save refund: %w", err)
	}
	return nil
}
