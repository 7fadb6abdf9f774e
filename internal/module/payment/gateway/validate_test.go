package gateway

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var validationNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestValidCard(t *testing.T) {
	valid := func() Card {
		return Card{
			Number:         "4111111111111111",
			CVV:            "123",
			Expiration:     "12-30",
			HolderName:     "Jane Doe",
			HolderDocument: "12345678901",
		}
	}

	t.Run("Accepts a well-formed card", func(t *testing.T) {
		c := valid()
		assert.True(t, ValidCard(&c, validationNow))
	})

	tests := []struct {
		name   string
		mutate func(*Card)
		want   bool
	}{
		{"Spaced number", func(c *Card) { c.Number = "4111 1111 1111 1111" }, true},
		{"Dashed number", func(c *Card) { c.Number = "4111-1111-1111-1111" }, true},
		{"Bad checksum", func(c *Card) { c.Number = "4111111111111112" }, false},
		{"Short number", func(c *Card) { c.Number = "411111111111111" }, false},
		{"Letters in number", func(c *Card) { c.Number = "411111111111111a" }, false},
		{"Four digit CVV", func(c *Card) { c.CVV = "1234" }, true},
		{"Short CVV", func(c *Card) { c.CVV = "12" }, false},
		{"Non-numeric CVV", func(c *Card) { c.CVV = "12a" }, false},
		{"Expired card", func(c *Card) { c.Expiration = "05-26" }, false},
		{"Expires this month", func(c *Card) { c.Expiration = "06-26" }, true},
		{"Slash separator", func(c *Card) { c.Expiration = "12/30" }, false},
		{"Month zero", func(c *Card) { c.Expiration = "00-30" }, false},
		{"Month thirteen", func(c *Card) { c.Expiration = "13-30" }, false},
		{"Single char name", func(c *Card) { c.HolderName = "J" }, false},
		{"Whitespace name", func(c *Card) { c.HolderName = "   " }, false},
		{"Name too long", func(c *Card) { c.HolderName = strings.Repeat("a", 101) }, false},
		{"Formatted CPF", func(c *Card) { c.HolderDocument = "123.456.789-01" }, true},
		{"Formatted CNPJ", func(c *Card) { c.HolderDocument = "12.345.678/0001-90" }, true},
		{"Short document", func(c *Card) { c.HolderDocument = "123456789" }, false},
		{"Letters in document", func(c *Card) { c.HolderDocument = "1234567890a" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Equal(t, tt.want, ValidCard(&c, validationNow))
		})
	}
}

func TestLuhn(t *testing.T) {
	assert.True(t, luhn("4111111111111111"))
	assert.True(t, luhn("5500005555555559"))
	assert.False(t, luhn("4111111111111112"))
}
