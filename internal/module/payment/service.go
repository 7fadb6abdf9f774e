package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/card"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
	"github.com/paymentsmodule/server/internal/utils/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CardDirectory resolves stored cards. Satisfied by the card
// repository.
type CardDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*card.Card, error)
}

// Service is the payment lifecycle orchestrator. It is the sole
// writer of payment and order status: it validates preconditions,
// calls the external gateway, and commits the resulting transition to
// the record store. Writes for the same order are serialized by a
// per-order lock; the gateway call is the only slow step and no
// database lock is held across it.
type Service struct {
	repo    Repository
	cards   CardDirectory
	gateway gateway.Client
	locks   *keyedMutex
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	cards CardDirectory,
	gw gateway.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:    repo,
		cards:   cards,
		gateway: gw,
		locks:   newKeyedMutex(),
		logger:  logger,
		metrics: m,
	}
}

// CreateCardPayment charges a stored card for a fresh order. The
// gateway resolves the charge synchronously: APPROVED marks the order
// PAID, REFUSED marks it FAILED. Either way the payment record and
// the implicitly created order are committed as one unit.
func (s *Service) CreateCardPayment(ctx context.Context, orderID, cardID uuid.UUID, amount decimal.Decimal) (p *Payment, err error) {
	defer func() { s.observe("create_card", err) }()

	if err := validAmount(amount); err != nil {
		return nil, err
	}

	c, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	if err := s.requireFreshOrder(ctx, orderID); err != nil {
		return nil, err
	}

	status, err := s.gateway.ChargeCard(ctx, amount, c.ToGateway())
	if err != nil {
		return nil, fmt.Errorf("charge card: %w", err)
	}

	now := time.Now().UTC()
	p = &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		Method:        MethodCard,
		Amount:        amount,
		Status:        chargeToStatus(status),
		CardID:        &c.ID,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	orderStatus := OrderStatusFailed
	if p.Status == StatusApproved {
		orderStatus = OrderStatusPaid
	}
	o := &Order{ID: orderID, Status: orderStatus, CreatedAt: now, UpdatedAt: now}

	if err := s.repo.CreatePaymentWithOrder(ctx, p, o); err != nil {
		return nil, err
	}

	s.committed(p)
	return p, nil
}

// CreatePixPayment registers an instant payment for a fresh order.
// Settlement is asynchronous, so the payment starts PENDING and the
// order AWAITING_PAYMENT.
func (s *Service) CreatePixPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (p *Payment, err error) {
	defer func() { s.observe("create_pix", err) }()

	if err := validAmount(amount); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	if err := s.requireFreshOrder(ctx, orderID); err != nil {
		return nil, err
	}

	pix, err := s.gateway.CreatePix(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("create pix: %w", err)
	}

	now := time.Now().UTC()
	p = &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		Method:        MethodPix,
		Amount:        amount,
		Status:        StatusPending,
		QRCode:        pix.QRCode,
		ExpiresAt:     &pix.ExpiresAt,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	o := &Order{ID: orderID, Status: OrderStatusAwaitingPayment, CreatedAt: now, UpdatedAt: now}

	if err := s.repo.CreatePaymentWithOrder(ctx, p, o); err != nil {
		return nil, err
	}

	s.committed(p)
	return p, nil
}

// CreateBoletoPayment registers a deferred invoice for a fresh order.
// Like pix, the payment starts PENDING and the order AWAITING_PAYMENT.
func (s *Service) CreateBoletoPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (p *Payment, err error) {
	defer func() { s.observe("create_boleto", err) }()

	if err := validAmount(amount); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	if err := s.requireFreshOrder(ctx, orderID); err != nil {
		return nil, err
	}

	boleto, err := s.gateway.CreateBoleto(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("create boleto: %w", err)
	}

	now := time.Now().UTC()
	p = &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		Method:        MethodBoleto,
		Amount:        amount,
		Status:        StatusPending,
		Barcode:       boleto.Barcode,
		DueDate:       &boleto.DueDate,
		DigitableLine: boleto.DigitableLine,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	o := &Order{ID: orderID, Status: OrderStatusAwaitingPayment, CreatedAt: now, UpdatedAt: now}

	if err := s.repo.CreatePaymentWithOrder(ctx, p, o); err != nil {
		return nil, err
	}

	s.committed(p)
	return p, nil
}

// ReissuePayment replaces a FAILED or REFUSED payment with a new
// attempt for the same order and amount. The old record is retired as
// REISSUED and kept for audit; the replacement starts its own
// lifecycle. The order status is left untouched: only the initial
// creation operations set it.
func (s *Service) ReissuePayment(ctx context.Context, paymentID uuid.UUID) (replacement *Payment, err error) {
	defer func() { s.observe("reissue", err) }()

	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(p.OrderID)
	defer unlock()

	// Re-read under the lock; a concurrent reissue may have retired
	// this record already.
	p, err = s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.Reissuable() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, p.Status)
	}

	now := time.Now().UTC()
	replacement = &Payment{
		ID:            uuid.New(),
		OrderID:       p.OrderID,
		Method:        p.Method,
		Amount:        p.Amount,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	switch p.Method {
	case MethodCard:
		if p.CardID == nil {
			return nil, fmt.Errorf("%w: card payment %s has no card", ErrValidation, p.ID)
		}
		c, err := s.cards.GetByID(ctx, *p.CardID)
		if err != nil {
			return nil, err
		}
		status, err := s.gateway.ChargeCard(ctx, p.Amount, c.ToGateway())
		if err != nil {
			return nil, fmt.Errorf("charge card: %w", err)
		}
		replacement.Status = chargeToStatus(status)
		replacement.CardID = p.CardID
	case MethodPix:
		pix, err := s.gateway.CreatePix(ctx, p.Amount)
		if err != nil {
			return nil, fmt.Errorf("create pix: %w", err)
		}
		replacement.Status = StatusPending
		replacement.QRCode = pix.QRCode
		replacement.ExpiresAt = &pix.ExpiresAt
	case MethodBoleto:
		boleto, err := s.gateway.CreateBoleto(ctx, p.Amount)
		if err != nil {
			return nil, fmt.Errorf("create boleto: %w", err)
		}
		replacement.Status = StatusPending
		replacement.Barcode = boleto.Barcode
		replacement.DueDate = &boleto.DueDate
		replacement.DigitableLine = boleto.DigitableLine
	default:
		return nil, fmt.Errorf("%w: unsupported payment method %s", ErrValidation, p.Method)
	}

	p.Status = StatusReissued
	p.LastUpdatedAt = now

	if err := s.repo.CreateReissue(ctx, p, replacement); err != nil {
		return nil, err
	}

	s.logger.Info("payment reissued",
		zap.String("retired_payment_id", p.ID.String()),
		zap.String("payment_id", replacement.ID.String()),
		zap.String("order_id", p.OrderID.String()),
		zap.String("status", string(replacement.Status)),
	)
	s.committed(replacement)
	return replacement, nil
}

// RefundPayment refunds an APPROVED payment. Card payments are
// refunded back onto the card; other methods need a bank account to
// deposit into. A gateway decline (uuid.Nil transaction) surfaces as
// ErrRefundDeclined and changes nothing. On success the payment turns
// REFUNDED and a single refund audit record is committed with it.
func (s *Service) RefundPayment(ctx context.Context, paymentID uuid.UUID, account *gateway.BankAccount, reason string) (txID uuid.UUID, err error) {
	defer func() { s.observe("refund", err) }()

	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return uuid.Nil, err
	}

	if p.Method != MethodCard && account == nil {
		return uuid.Nil, fmt.Errorf("%w: bank account is required to refund a %s payment", ErrValidation, p.Method)
	}

	unlock := s.locks.Lock(p.OrderID)
	defer unlock()

	p, err = s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return uuid.Nil, err
	}
	if !p.Status.Refundable() {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidState, p.Status)
	}

	if p.Method == MethodCard {
		if p.CardID == nil {
			return uuid.Nil, fmt.Errorf("%w: card payment %s has no card", ErrValidation, p.ID)
		}
		c, err := s.cards.GetByID(ctx, *p.CardID)
		if err != nil {
			return uuid.Nil, err
		}
		txID, err = s.gateway.RefundCard(ctx, p.Amount, c.ToGateway())
		if err != nil {
			return uuid.Nil, fmt.Errorf("refund card: %w", err)
		}
	} else {
		txID, err = s.gateway.CreateDeposit(ctx, p.Amount, account)
		if err != nil {
			return uuid.Nil, fmt.Errorf("create deposit: %w", err)
		}
	}

	// uuid.Nil is the gateway's decline sentinel, a normal outcome.
	if txID == uuid.Nil {
		return uuid.Nil, ErrRefundDeclined
	}

	now := time.Now().UTC()
	p.Status = StatusRefunded
	p.LastUpdatedAt = now

	ref := &Refund{
		ID:            uuid.New(),
		PaymentID:     p.ID,
		TransactionID: txID,
		Amount:        p.Amount,
		Reason:        reason,
		RefundedAt:    now,
	}

	if err := s.repo.SaveRefund(ctx, p, ref); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("payment refunded",
		zap.String("payment_id", p.ID.String()),
		zap.String("order_id", p.OrderID.String()),
		zap.String("transaction_id", txID.String()),
	)
	s.committed(p)
	return txID, nil
}

// GetPayment returns a payment by ID.
func (s *Service) GetPayment(ctx context.Context, paymentID uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, paymentID)
}

// ListPaymentsByOrder returns every payment issued for an order,
// oldest first, including retired ones.
func (s *Service) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPaymentsByOrder(ctx, orderID)
}

// GetOrder returns an order by ID.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// GetRefund returns the refund record of a payment, if any.
func (s *Service) GetRefund(ctx context.Context, paymentID uuid.UUID) (*Refund, error) {
	return s.repo.GetRefundByPayment(ctx, paymentID)
}

// requireFreshOrder fails with ErrOrderConflict when the order already
// exists; creating a second payment for it must go through reissue.
func (s *Service) requireFreshOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.repo.GetOrder(ctx, orderID)
	if err == nil {
		return ErrOrderConflict
	}
	if errors.Is(err, ErrOrderNotFound) {
		return nil
	}
	return err
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrValidation, amount)
	}
	return nil
}

func chargeToStatus(status gateway.ChargeStatus) Status {
	if status == gateway.ChargeApproved {
		return StatusApproved
	}
	return StatusRefused
}

// committed records a status committed to the store.
func (s *Service) committed(p *Payment) {
	if s.metrics != nil {
		s.metrics.RecordStatus(string(p.Method), string(p.Status))
	}
}

// observe records the outcome of a lifecycle operation.
func (s *Service) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrUnavailable):
		result = "unavailable"
	case errors.Is(err, ErrRefundDeclined):
		result = "declined"
	default:
		result = "rejected"
	}
	s.metrics.RecordOperation(operation, result)
}
