package card

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockValidator implements Validator with a scripted verdict.
type MockValidator struct {
	valid bool
	err   error
	seen  *gateway.Card
}

func (v *MockValidator) ValidateCard(_ context.Context, c *gateway.Card) (bool, error) {
	v.seen = c
	return v.valid, v.err
}

func testCard() *Card {
	return &Card{
		Number:         "4111111111111111",
		CVV:            "123",
		Expiration:     "12-30",
		HolderName:     "Jane Doe",
		HolderDocument: "12345678901",
	}
}

func TestService_Register(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &MockValidator{valid: true}, zap.NewNop())

	c, err := svc.Register(context.Background(), testCard())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	stored, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Number, stored.Number)
}

func TestService_Get(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &MockValidator{valid: true}, zap.NewNop())

	c, err := svc.Register(context.Background(), testCard())
	require.NoError(t, err)

	t.Run("Returns card by ID", func(t *testing.T) {
		got, err := svc.Get(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
	})

	t.Run("Unknown card", func(t *testing.T) {
		_, err := svc.Get(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrCardNotFound)
	})
}

func TestService_Validate(t *testing.T) {
	t.Run("Forwards the stored card to the validator", func(t *testing.T) {
		repo := NewMemoryRepository()
		validator := &MockValidator{valid: true}
		svc := NewService(repo, validator, zap.NewNop())

		c, err := svc.Register(context.Background(), testCard())
		require.NoError(t, err)

		ok, err := svc.Validate(context.Background(), c.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, validator.seen)
		assert.Equal(t, c.Number, validator.seen.Number)
	})

	t.Run("Unknown card skips the validator", func(t *testing.T) {
		validator := &MockValidator{valid: true}
		svc := NewService(NewMemoryRepository(), validator, zap.NewNop())

		_, err := svc.Validate(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrCardNotFound)
		assert.Nil(t, validator.seen)
	})
}

func TestCard_MaskedNumber(t *testing.T) {
	c := testCard()
	assert.Equal(t, "**** **** **** 1111", c.MaskedNumber())

	short := &Card{Number: "41"}
	assert.Equal(t, "****", short.MaskedNumber())
}
