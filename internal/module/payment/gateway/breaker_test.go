package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyClient fails every call until healed.
type flakyClient struct {
	failing bool
	calls   int
}

func (f *flakyClient) call() error {
	f.calls++
	if f.failing {
		return errors.New("connection refused")
	}
	return nil
}

func (f *flakyClient) ChargeCard(context.Context, decimal.Decimal, *Card) (ChargeStatus, error) {
	if err := f.call(); err != nil {
		return "", err
	}
	return ChargeApproved, nil
}

func (f *flakyClient) RefundCard(context.Context, decimal.Decimal, *Card) (uuid.UUID, error) {
	if err := f.call(); err != nil {
		return uuid.Nil, err
	}
	return uuid.New(), nil
}

func (f *flakyClient) CreatePix(context.Context, decimal.Decimal) (*PixOrder, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &PixOrder{QRCode: "simulated-qrcode"}, nil
}

func (f *flakyClient) CreateBoleto(context.Context, decimal.Decimal) (*BoletoOrder, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &BoletoOrder{Barcode: "simulated-barcode"}, nil
}

func (f *flakyClient) CreateDeposit(context.Context, decimal.Decimal, *BankAccount) (uuid.UUID, error) {
	if err := f.call(); err != nil {
		return uuid.Nil, err
	}
	return uuid.New(), nil
}

func (f *flakyClient) ValidateCard(context.Context, *Card) (bool, error) {
	if err := f.call(); err != nil {
		return false, err
	}
	return true, nil
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	client := &flakyClient{failing: true}
	b := NewBreaker(client, BreakerSettings{ConsecutiveFailures: 3, Timeout: time.Minute})
	amount := decimal.NewFromInt(100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.ChargeCard(ctx, amount, &Card{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	// Open circuit fails fast without reaching the client.
	calls := client.calls
	_, err := b.ChargeCard(ctx, amount, &Card{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, calls, client.calls)

	_, err = b.CreatePix(ctx, amount)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	client := &flakyClient{}
	b := NewBreaker(client, BreakerSettings{})
	ctx := context.Background()

	status, err := b.ChargeCard(ctx, decimal.NewFromInt(50), &Card{})
	require.NoError(t, err)
	assert.Equal(t, ChargeApproved, status)

	pix, err := b.CreatePix(ctx, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, "simulated-qrcode", pix.QRCode)

	ok, err := b.ValidateCard(ctx, &Card{})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_DeclinesDoNotTrip(t *testing.T) {
	s := NewSimulated(Odds{CardRefund: 0, Deposit: 0}, 1)
	b := NewBreaker(s, BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		txID, err := b.RefundCard(ctx, decimal.NewFromInt(10), testCard())
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, txID)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
