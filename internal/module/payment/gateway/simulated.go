package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Odds holds the success rates of the simulated processor, in percent.
type Odds struct {
	ChargeApproval int // card charges approved
	CardRefund     int // card refunds accepted
	Deposit        int // deposits accepted
	CardRejection  int // well-formed cards still rejected by the processor
}

// DefaultOdds returns the rates of the reference processor: refunds
// and deposits succeed more often than first charges.
func DefaultOdds() Odds {
	return Odds{
		ChargeApproval: 50,
		CardRefund:     90,
		Deposit:        75,
		CardRejection:  10,
	}
}

// Simulated is a stand-in for the external payment processor. Outcomes
// are decided by a seeded random source so tests can pin the seed and
// get deterministic behavior.
type Simulated struct {
	odds    Odds
	latency time.Duration
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Simulated gateway.
type Option func(*Simulated)

// WithLatency sets the simulated network latency per call.
func WithLatency(d time.Duration) Option {
	return func(s *Simulated) { s.latency = d }
}

// WithClock overrides the clock used for artifact expirations.
func WithClock(now func() time.Time) Option {
	return func(s *Simulated) { s.now = now }
}

// NewSimulated creates a simulated gateway. A zero seed seeds from the
// clock.
func NewSimulated(odds Odds, seed int64, opts ...Option) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Simulated{
		odds: odds,
		now:  time.Now,
		rng:  rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChargeCard simulates a synchronous card charge.
func (s *Simulated) ChargeCard(ctx context.Context, amount decimal.Decimal, c *Card) (ChargeStatus, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	if s.roll(s.odds.ChargeApproval) {
		return ChargeApproved, nil
	}
	return ChargeRefused, nil
}

// RefundCard simulates a card refund. A declined refund returns
// uuid.Nil, not an error.
func (s *Simulated) RefundCard(ctx context.Context, amount decimal.Decimal, c *Card) (uuid.UUID, error) {
	if err := s.wait(ctx); err != nil {
		return uuid.Nil, err
	}
	if s.roll(s.odds.CardRefund) {
		return uuid.New(), nil
	}
	return uuid.Nil, nil
}

// CreatePix issues an instant payment artifact expiring in 30 minutes.
func (s *Simulated) CreatePix(ctx context.Context, amount decimal.Decimal) (*PixOrder, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return &PixOrder{
		QRCode:    "simulated-qrcode",
		ExpiresAt: s.now().UTC().Add(30 * time.Minute),
	}, nil
}

// CreateBoleto issues a deferred invoice artifact due in 5 days.
func (s *Simulated) CreateBoleto(ctx context.Context, amount decimal.Decimal) (*BoletoOrder, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	due := s.now().UTC().AddDate(0, 0, 5)
	return &BoletoOrder{
		Barcode:       "simulated-barcode",
		DueDate:       time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC),
		DigitableLine: "simulated-digitable-line",
	}, nil
}

// CreateDeposit simulates a bank deposit. A declined deposit returns
// uuid.Nil, not an error.
func (s *Simulated) CreateDeposit(ctx context.Context, amount decimal.Decimal, account *BankAccount) (uuid.UUID, error) {
	if err := s.wait(ctx); err != nil {
		return uuid.Nil, err
	}
	if s.roll(s.odds.Deposit) {
		return uuid.New(), nil
	}
	return uuid.Nil, nil
}

// ValidateCard applies the processor's format checks and then a
// simulated provider-side rejection rate.
func (s *Simulated) ValidateCard(ctx context.Context, c *Card) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	if !ValidCard(c, s.now()) {
		return false, nil
	}
	return !s.roll(s.odds.CardRejection), nil
}

// roll returns true with the given percent probability.
func (s *Simulated) roll(percent int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(100) < percent
}

// wait simulates network latency. Cancellation surfaces as a transport
// failure, never as a business outcome.
func (s *Simulated) wait(ctx context.Context) error {
	if s.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case <-time.After(s.latency):
		return nil
	}
}
