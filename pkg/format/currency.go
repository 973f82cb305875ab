// Package format renders money amounts for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RupeeSymbol prefixes amounts rendered by Rupees.
const RupeeSymbol = "₹"

// Grouping selects the digit grouping convention.
type Grouping string

const (
	// Indian groups the last three digits, then every two ("25,00,000").
	Indian Grouping = constants.GroupingIndian
	// International groups every three digits ("2,500,000").
	International Grouping = constants.GroupingInternational
)

// ParseGrouping maps a configuration value to a Grouping.
func ParseGrouping(value string) (Grouping, error) {
	switch Grouping(strings.ToLower(strings.TrimSpace(value))) {
	case "", Indian:
		return Indian, nil
	case International:
		return International, nil
	default:
		return "", fmt.Errorf("expected grouping of %s or %s, got %s", Indian, International, value)
	}
}

// maxPrinted is the largest magnitude handed to the x/text printer.
var maxPrinted = decimal.NewFromInt(math.MaxInt64)

// Amount rounds amount to the nearest whole unit (half away from zero) and
// groups its digits, e.g. Amount(2500000.4, Indian) == "25,00,000". NaN and
// infinities are written as strconv does.
func Amount(amount float64, grouping Grouping) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
	return AmountDecimal(decimal.NewFromFloat(amount), grouping)
}

// AmountDecimal is Amount for an exact decimal value.
func AmountDecimal(amount decimal.Decimal, grouping Grouping) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().String()
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}

	if grouping == International {
		if rounded.Abs().LessThanOrEqual(maxPrinted) {
			p := message.NewPrinter(language.English)
			return p.Sprintf("%d", rounded.IntPart())
		}
		return sign + groupThousands(digits)
	}
	return sign + groupIndian(digits)
}

// Rupees is Amount with the rupee symbol, e.g. "₹21,696" or "-₹500".
func Rupees(amount float64, grouping Grouping) string {
	return withSymbol(Amount(amount, grouping))
}

// RupeesDecimal is Rupees for an exact decimal value.
func RupeesDecimal(amount decimal.Decimal, grouping Grouping) string {
	return withSymbol(AmountDecimal(amount, grouping))
}

func withSymbol(formatted string) string {
	if strings.HasPrefix(formatted, "-") {
		return "-" + RupeeSymbol + formatted[1:]
	}
	return RupeeSymbol + formatted
}

// Percent renders a share with one decimal place, e.g. "48.0%".
func Percent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64) + "%"
	}
	return decimal.NewFromFloat(value).StringFixed(1) + "%"
}

// ParseAmount reads a free-text money value such as "₹25,00,000", "2500000"
// or "Rs. 1,20,000.50". It returns false for blank or non-numeric input,
// exponent notation and amounts with more than constants.MaxAmountDigits
// whole digits.
func ParseAmount(value string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(value)
	for _, prefix := range []string{RupeeSymbol, "INR", "Rs.", "Rs", "rs.", "rs"} {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if !plainDecimal(cleaned) {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// plainDecimal accepts digits with at most one decimal point.
func plainDecimal(s string) bool {
	whole, fraction, _ := strings.Cut(s, ".")
	if whole == "" && fraction == "" {
		return false
	}
	for _, part := range []string{whole, fraction} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return len(strings.TrimLeft(whole, "0")) <= constants.MaxAmountDigits
}

// Describe renders an optional free-text amount for people: a parsable value
// comes back as grouped rupees, blank input as fallback, anything else as typed.
func Describe(value string, grouping Grouping, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	amount, ok := ParseAmount(trimmed)
	if !ok {
		return trimmed
	}
	return RupeesDecimal(amount, grouping)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var builder strings.Builder
	for i, digit := range head {
		if i > 0 && (len(head)-i)%2 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	builder.WriteByte(',')
	builder.WriteString(tail)
	return builder.String()
}

func groupThousands(digits string) string {
	var builder strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
