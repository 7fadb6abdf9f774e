package gateway

import (
	"strings"
	"time"
)

// ValidCard applies the processor's format checks: 16-digit Luhn card
// number, 3-4 digit CVV, MM-YY expiration not in the past, holder name
// 2..100 characters and an 11 or 14 digit holder document.
func ValidCard(c *Card, now time.Time) bool {
	if !validCardNumber(c.Number) {
		return false
	}
	if !validCVV(c.CVV) {
		return false
	}
	if !validExpiration(c.Expiration, now) {
		return false
	}
	name := strings.TrimSpace(c.HolderName)
	if len(name) < 2 || len(name) > 100 {
		return false
	}
	return validDocument(c.HolderDocument)
}

func validCardNumber(number string) bool {
	number = strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(number) != 16 || !allDigits(number) {
		return false
	}
	return luhn(number)
}

// luhn checks the card number checksum.
func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit = digit%10 + 1
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

func validCVV(cvv string) bool {
	return (len(cvv) == 3 || len(cvv) == 4) && allDigits(cvv)
}

// validExpiration accepts MM-YY and requires the last day of that
// month to be today or later.
func validExpiration(expiration string, now time.Time) bool {
	parts := strings.Split(expiration, "-")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}
	if !allDigits(parts[0]) || !allDigits(parts[1]) {
		return false
	}
	month := int(parts[0][0]-'0')*10 + int(parts[0][1]-'0')
	if month < 1 || month > 12 {
		return false
	}
	year := 2000 + int(parts[1][0]-'0')*10 + int(parts[1][1]-'0')

	// First day of the following month, i.e. one past the last valid day.
	end := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !today.After(end.AddDate(0, 0, -1))
}

// validDocument accepts a CPF (11 digits) or CNPJ (14 digits) after
// stripping formatting characters.
func validDocument(document string) bool {
	document = strings.NewReplacer(".", "", "-", "", "/", "").Replace(document)
	if len(document) != 11 && len(document) != 14 {
		return false
	}
	return allDigits(document)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
