package card

import (
	"time"

	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
)

// Card represents a stored payment card. Cards are registered
// independently of payments; a card may back multiple payments over
// time.
type Card struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number         string    `json:"number" gorm:"not null"`
	CVV            string    `json:"cvv" gorm:"not null"`
	Expiration     string    `json:"expiration" gorm:"not null"` // MM-YY
	HolderName     string    `json:"holder_name" gorm:"not null"`
	HolderDocument string    `json:"holder_document" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Card) TableName() string {
	return "cards"
}

// ToGateway maps the stored card into the processor's view of it.
func (c *Card) ToGateway() *gateway.Card {
	return &gateway.Card{
		Number:         c.Number,
		CVV:            c.CVV,
		Expiration:     c.Expiration,
		HolderName:     c.HolderName,
		HolderDocument: c.HolderDocument,
	}
}

// MaskedNumber returns the card number with all but the last four
// digits hidden, for responses and logs.
func (c *Card) MaskedNumber() string {
	if len(c.Number) < 4 {
		return "****"
	}
	return "**** **** **** " + c.Number[len(c.Number)-4:]
}
