package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker around gateway calls.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit once reached.
	ConsecutiveFailures uint32
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
}

// Breaker wraps a Client with a circuit breaker. Only transport
// failures trip it; business declines are ordinary return values and
// never count. While the circuit is open every call fails fast with
// ErrUnavailable.
type Breaker struct {
	next Client
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreaker creates a circuit-breaking gateway client.
func NewBreaker(next Client, cfg BreakerSettings) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return v, err
}

func (b *Breaker) ChargeCard(ctx context.Context, amount decimal.Decimal, c *Card) (ChargeStatus, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.ChargeCard(ctx, amount, c)
	})
	if err != nil {
		return "", err
	}
	return v.(ChargeStatus), nil
}

func (b *Breaker) RefundCard(ctx context.Context, amount decimal.Decimal, c *Card) (uuid.UUID, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.RefundCard(ctx, amount, c)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

func (b *Breaker) CreatePix(ctx context.Context, amount decimal.Decimal) (*PixOrder, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.CreatePix(ctx, amount)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PixOrder), nil
}

func (b *Breaker) CreateBoleto(ctx context.Context, amount decimal.Decimal) (*BoletoOrder, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.CreateBoleto(ctx, amount)
	})
	if err != nil {
		return nil, err
	}
	return v.(*BoletoOrder), nil
}

func (b *Breaker) CreateDeposit(ctx context.Context, amount decimal.Decimal, account *BankAccount) (uuid.UUID, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.CreateDeposit(ctx, amount, account)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

func (b *Breaker) ValidateCard(ctx context.Context, c *Card) (bool, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.ValidateCard(ctx, c)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
