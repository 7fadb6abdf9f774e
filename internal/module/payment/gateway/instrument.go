package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/utils/metrics"
	"github.com/shopspring/decimal"
)

// Instrumented wraps a Client and records a counter and duration per
// gateway call, labeled by outcome (ok, declined, unavailable).
type Instrumented struct {
	next Client
	m    *metrics.Metrics
}

// NewInstrumented creates a metrics-recording gateway client.
func NewInstrumented(next Client, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, m: m}
}

func (i *Instrumented) record(call string, start time.Time, declined bool, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "unavailable"
	case declined:
		outcome = "declined"
	}
	i.m.RecordGatewayCall(call, outcome, time.Since(start))
}

func (i *Instrumented) ChargeCard(ctx context.Context, amount decimal.Decimal, c *Card) (ChargeStatus, error) {
	start := time.Now()
	status, err := i.next.ChargeCard(ctx, amount, c)
	i.record("charge_card", start, status == ChargeRefused, err)
	return status, err
}

func (i *Instrumented) RefundCard(ctx context.Context, amount decimal.Decimal, c *Card) (uuid.UUID, error) {
	start := time.Now()
	txID, err := i.next.RefundCard(ctx, amount, c)
	i.record("refund_card", start, err == nil && txID == uuid.Nil, err)
	return txID, err
}

func (i *Instrumented) CreatePix(ctx context.Context, amount decimal.Decimal) (*PixOrder, error) {
	start := time.Now()
	order, err := i.next.CreatePix(ctx, amount)
	i.record("create_pix", start, false, err)
	return order, err
}

func (i *Instrumented) CreateBoleto(ctx context.Context, amount decimal.Decimal) (*BoletoOrder, error) {
	start := time.Now()
	order, err := i.next.CreateBoleto(ctx, amount)
	i.record("create_boleto", start, false, err)
	return order, err
}

func (i *Instrumented) CreateDeposit(ctx context.Context, amount decimal.Decimal, account *BankAccount) (uuid.UUID, error) {
	start := time.Now()
	txID, err := i.next.CreateDeposit(ctx, amount, account)
	i.record("create_deposit", start, err == nil && txID == uuid.Nil, err)
	return txID, err
}

func (i *Instrumented) ValidateCard(ctx context.Context, c *Card) (bool, error) {
	start := time.Now()
	ok, err := i.next.ValidateCard(ctx, c)
	i.record("validate_card", start, err == nil && !ok, err)
	return ok, err
}
