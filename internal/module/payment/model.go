package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of a payment.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRefused  Status = "REFUSED"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
	StatusReissued Status = "REISSUED"
)

// Reissuable reports whether a payment in this status may be replaced
// by a new attempt.
func (s Status) Reissuable() bool {
	return s == StatusFailed || s == StatusRefused
}

// Refundable reports whether a payment in this status may be refunded.
func (s Status) Refundable() bool {
	return s == StatusApproved
}

// Terminal reports whether the record is immutable from here on.
func (s Status) Terminal() bool {
	return s == StatusReissued || s == StatusRefunded
}

// Method represents a payment method.
type Method string

const (
	MethodCard   Method = "card"
	MethodPix    Method = "pix"
	MethodBoleto Method = "boleto"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusFailed          OrderStatus = "FAILED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// Order is created implicitly when its first payment is created. Only
// the orchestrator writes its status.
type Order struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Status    OrderStatus `json:"status" gorm:"not null"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// Payment is the single payment record type covering all three
// methods. The Method tag says which variant fields are populated:
// CardID for card payments, QRCode/ExpiresAt for pix and
// Barcode/DueDate/DigitableLine for boleto. OrderID never changes
// after creation; a reissue retires this record and creates a fresh
// one for the same order.
type Payment struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	Method        Method          `json:"method" gorm:"not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Status        Status          `json:"status" gorm:"not null"`
	CardID        *uuid.UUID      `json:"card_id,omitempty" gorm:"type:uuid"`
	QRCode        string          `json:"qr_code,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	Barcode       string          `json:"barcode,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	DigitableLine string          `json:"digitable_line,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}

// TableName returns the database table name.
func (Payment) TableName() string {
	return "payments"
}

// Refund is the audit record of a successful refund. At most one
// exists per payment; it is immutable once written.
type Refund struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	PaymentID     uuid.UUID       `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex"`
	TransactionID uuid.UUID       `json:"transaction_id" gorm:"type:uuid;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Reason        string          `json:"reason"`
	RefundedAt    time.Time       `json:"refunded_at"`
}

// TableName returns the database table name.
func (Refund) TableName() string {
	return "refunds"
}
