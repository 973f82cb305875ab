// Package tenure parses human-written loan tenures.
package tenure

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kkfinancial/loan-consult/pkg/constants"
)

// Parse converts a tenure such as "20y", "240m", "1y6m", "20 years" or a bare
// "240" (months) into a count of months. A bare fractional count rounds to the
// nearest month.
func Parse(value string) (int, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return 0, fmt.Errorf("empty tenure")
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return bareMonths(f, value)
	}

	months := 0
	rest := trimmed
	for rest != "" {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		idx := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsDigit(r) })
		if idx <= 0 {
			return 0, fmt.Errorf("invalid tenure %q", value)
		}
		n, err := strconv.Atoi(rest[:idx])
		if err != nil {
			return 0, fmt.Errorf("invalid tenure %q: %w", value, err)
		}
		if n > constants.MaxTenureMonths/constants.MonthsPerYear {
			return 0, fmt.Errorf("tenure %q is too long", value)
		}
		rest = strings.TrimLeftFunc(rest[idx:], unicode.IsSpace)

		end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
		if end < 0 {
			end = len(rest)
		}
		unit := rest[:end]
		rest = rest[end:]

		switch unit {
		case "y", "yr", "yrs", "year", "years":
			months += n * constants.MonthsPerYear
		case "m", "mo", "mos", "month", "months":
			months += n
		default:
			return 0, fmt.Errorf("unsupported tenure unit %q in %q", unit, value)
		}
		if months > constants.MaxTenureMonths {
			return 0, fmt.Errorf("tenure %q is too long", value)
		}
	}

	if months <= 0 {
		return 0, fmt.Errorf("tenure must be positive, got %s", value)
	}
	return months, nil
}

func bareMonths(f float64, value string) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid tenure %q", value)
	}
	rounded := math.Round(f)
	if rounded <= 0 {
		return 0, fmt.Errorf("tenure must be positive, got %s", value)
	}
	if rounded > constants.MaxTenureMonths {
		return 0, fmt.Errorf("tenure %q is too long", value)
	}
	return int(rounded), nil
}

// Describe renders months as "20 years", "1 year 6 months" or "18 months".
func Describe(months int) string {
	if months <= 0 {
		return "0 months"
	}
	years := months / constants.MonthsPerYear
	remainder := months % constants.MonthsPerYear

	parts := make([]string, 0, 2)
	if years > 0 {
		parts = append(parts, plural(years, "year"))
	}
	if remainder > 0 {
		parts = append(parts, plural(remainder, "month"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
