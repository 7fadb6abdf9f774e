package payment

import (
	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
	"github.com/shopspring/decimal"
)

// CreateCardPaymentRequest is the payload for a card charge.
type CreateCardPaymentRequest struct {
	OrderID uuid.UUID       `json:"order_id" binding:"required"`
	CardID  uuid.UUID       `json:"card_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// CreatePaymentRequest is the payload for pix and boleto payments.
type CreatePaymentRequest struct {
	OrderID uuid.UUID       `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// RefundRequest is the payload for a refund. The bank account is
// required unless the payment was made by card.
type RefundRequest struct {
	BankAccount *gateway.BankAccount `json:"bank_account,omitempty"`
	Reason      string               `json:"reason,omitempty"`
}

// RefundResponse reports a successful refund.
type RefundResponse struct {
	PaymentID           uuid.UUID `json:"payment_id"`
	RefundTransactionID uuid.UUID `json:"refund_transaction_id"`
}

// OrderResponse returns an order together with its payment history.
type OrderResponse struct {
	Order    *Order     `json:"order"`
	Payments []*Payment `json:"payments"`
}
