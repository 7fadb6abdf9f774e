package payment

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is the reference in-memory record store. A single
// RWMutex makes every multi-record writer one committed unit, which is
// exactly the atomicity contract the gorm repository gets from a
// database transaction.
type MemoryRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*Payment
	orders   map[uuid.UUID]*Order
	refunds  map[uuid.UUID]*Refund // keyed by payment id
}

// NewMemoryRepository creates an empty in-memory payment repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		payments: make(map[uuid.UUID]*Payment),
		orders:   make(map[uuid.UUID]*Order),
		refunds:  make(map[uuid.UUID]*Refund),
	}
}

func (r *MemoryRepository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *MemoryRepository) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var payments []*Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			payments = append(payments, clonePayment(p))
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments, nil
}

func (r *MemoryRepository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MemoryRepository) GetRefundByPayment(ctx context.Context, paymentID uuid.UUID) (*Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.refunds[paymentID]
	if !ok {
		return nil, ErrRefundNotFound
	}
	cp := *ref
	return &cp, nil
}

func (r *MemoryRepository) CreatePaymentWithOrder(ctx context.Context, p *Payment, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return ErrOrderConflict
	}
	r.orders[o.ID] = &Order{
		ID:        o.ID,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *MemoryRepository) CreateReissue(ctx context.Context, retired, replacement *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[retired.ID]; !exists {
		return ErrPaymentNotFound
	}
	r.payments[retired.ID] = clonePayment(retired)
	r.payments[replacement.ID] = clonePayment(replacement)
	return nil
}

func (r *MemoryRepository) SaveRefund(ctx context.Context, p *Payment, ref *Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; !exists {
		return ErrPaymentNotFound
	}
	r.payments[p.ID] = clonePayment(p)
	cp := *ref
	r.refunds[ref.PaymentID] = &cp
	return nil
}

func clonePayment(p *Payment) *Payment {
	cp := *p
	if p.CardID != nil {
		id := *p.CardID
		cp.CardID = &id
	}
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		cp.ExpiresAt = &t
	}
	if p.DueDate != nil {
		t := *p.DueDate
		cp.DueDate = &t
	}
	return &cp
}
