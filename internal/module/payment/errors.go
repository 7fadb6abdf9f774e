package payment

import "errors"

// Module errors.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrRefundNotFound  = errors.New("refund not found")

	// ErrOrderConflict means the order already has a payment; the
	// caller should reissue the existing one instead.
	ErrOrderConflict = errors.New("order already has a payment")

	// ErrInvalidState means the operation is not legal for the
	// payment's current status. Wrapped errors carry the status.
	ErrInvalidState = errors.New("operation not allowed for payment status")

	// ErrValidation covers caller mistakes in the request itself:
	// non-positive amounts, a missing bank account.
	ErrValidation = errors.New("invalid payment request")

	// ErrRefundDeclined is the gateway's business-level refusal to
	// refund or deposit. No stored state changes when it happens.
	ErrRefundDeclined = errors.New("refund failed with external payment provider")
)
