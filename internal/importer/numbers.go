package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyTokens = []string{"EUR", "CHF", "USD", "€", "$", "£"}

// ParseAmount parses a money value. Both "1234.56" and "1.234,56" are accepted;
// the right-most separator is taken as the decimal separator.
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	for _, token := range currencyTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%q is not a number", value)
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", value)
	}
	return amount, nil
}

// maxQuantity bounds parsed quantities so they fit the order item column
var maxQuantity = decimal.NewFromInt(math.MaxInt32)

// ParseQuantity parses a whole-number quantity ("2" or "2.0")
func ParseQuantity(value string) (int64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	if !amount.Equal(amount.Truncate(0)) {
		return 0, fmt.Errorf("%q is not a whole number", value)
	}
	if amount.Abs().GreaterThan(maxQuantity) {
		return 0, fmt.Errorf("%q is out of range", value)
	}
	return amount.IntPart(), nil
}

// LineTotal returns unitPrice * quantity rounded to cents
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
