package card

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
	"go.uber.org/zap"
)

// Validator runs the external processor's card checks. Satisfied by
// the payment gateway client.
type Validator interface {
	ValidateCard(ctx context.Context, c *gateway.Card) (bool, error)
}

// Service implements card registry operations.
type Service struct {
	repo      Repository
	validator Validator
	logger    *zap.Logger
}

// NewService creates a new card service.
func NewService(repo Repository, validator Validator, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

// Register stores a new card. The card is not validated here; a
// caller can pre-check it with Validate without spending a charge
// attempt.
func (s *Service) Register(ctx context.Context, c *Card) (*Card, error) {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("card registered",
		zap.String("card_id", c.ID.String()),
		zap.String("number", c.MaskedNumber()),
	)
	return c, nil
}

// Get returns a card by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Card, error) {
	return s.repo.GetByID(ctx, id)
}

// Validate runs the processor's format checks against a stored card.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (bool, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.validator.ValidateCard(ctx, c.ToGateway())
}
