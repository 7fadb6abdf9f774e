// Package gateway defines the contract with the external payment
// processor and ships a simulated implementation of it. The processor
// moves the actual funds; this service only records the outcome.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnavailable marks transport-level failures: the processor could
// not be reached, timed out, or the call was canceled. It is distinct
// from a business-level decline, which is always a normal return
// value, and is the only error kind a caller may retry.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Card is the processor's view of a payment card. Callers map their
// stored card records into it; the gateway never sees storage types.
type Card struct {
	Number         string
	CVV            string
	Expiration     string // MM-YY
	HolderName     string
	HolderDocument string
}

// ChargeStatus is the synchronous outcome of a card charge.
type ChargeStatus string

const (
	ChargeApproved ChargeStatus = "APPROVED"
	ChargeRefused  ChargeStatus = "REFUSED"
)

// PixOrder is the artifact issued for an instant payment.
type PixOrder struct {
	QRCode    string
	ExpiresAt time.Time
}

// BoletoOrder is the artifact issued for a deferred invoice.
type BoletoOrder struct {
	Barcode       string
	DueDate       time.Time
	DigitableLine string
}

// BankAccount routes a deposit for non-card refunds. It is a request
// payload only and is never persisted.
type BankAccount struct {
	Bank          string `json:"bank" binding:"required"`
	Agency        string `json:"agency" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountType   string `json:"account_type" binding:"required"`
	HolderName    string `json:"holder_name" binding:"required"`
}

// Client is the contract with the external payment processor.
//
// A declined charge, refund or deposit is a normal outcome, never an
// error: ChargeCard reports it through the status, RefundCard and
// CreateDeposit through a uuid.Nil transaction id. Errors are reserved
// for transport failures and wrap ErrUnavailable.
type Client interface {
	// ChargeCard attempts a synchronous card charge.
	ChargeCard(ctx context.Context, amount decimal.Decimal, c *Card) (ChargeStatus, error)

	// RefundCard refunds a charge back onto the card. Returns the
	// refund transaction id, or uuid.Nil if the processor declined.
	RefundCard(ctx context.Context, amount decimal.Decimal, c *Card) (uuid.UUID, error)

	// CreatePix registers an instant payment and returns its
	// reference artifact. Settlement happens asynchronously.
	CreatePix(ctx context.Context, amount decimal.Decimal) (*PixOrder, error)

	// CreateBoleto registers a deferred invoice and returns its
	// printable artifact. Settlement happens asynchronously.
	CreateBoleto(ctx context.Context, amount decimal.Decimal) (*BoletoOrder, error)

	// CreateDeposit sends funds to a bank account. Returns the
	// deposit transaction id, or uuid.Nil if the processor declined.
	CreateDeposit(ctx context.Context, amount decimal.Decimal, account *BankAccount) (uuid.UUID, error)

	// ValidateCard runs the processor's format checks against a card
	// without spending a charge attempt.
	ValidateCard(ctx context.Context, c *Card) (bool, error)
}
