// Package emi computes equated monthly installments using the reducing-balance
// amortization formula.
//
// Inputs that cannot produce a meaningful installment (zero, negative, NaN or
// unparsable values, and a zero interest rate) yield no result rather than an
// error: during interactive input this is the normal quiescent state.
package emi

import (
	"math"
	"strconv"
	"strings"

	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/mathutil"
)

// TenureUnit says how a tenure value should be read.
type TenureUnit string

const (
	// Months reads the tenure as a count of months.
	Months TenureUnit = "months"
	// Years reads the tenure as years and converts by multiplying by 12.
	Years TenureUnit = "years"
)

// Parameters holds the loan inputs for one calculation.
type Parameters struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TenureMonths      int     `json:"tenureMonths"`
}

// Result holds the installment and its breakdown over the whole tenure.
type Result struct {
	MonthlyEMI       float64 `json:"monthlyEMI"`
	TotalInterest    float64 `json:"totalInterest"`
	TotalAmount      float64 `json:"totalAmount"`
	PrincipalPercent float64 `json:"principalPercent"`
	InterestPercent  float64 `json:"interestPercent"`
}

// Compute calculates the monthly installment for principal borrowed at
// annualRatePercent over tenureMonths. The boolean is false when the inputs
// are not computable.
func Compute(principal, annualRatePercent float64, tenureMonths int) (Result, bool) {
	if !mathutil.IsFinitePositive(principal) || !mathutil.IsFinitePositive(annualRatePercent) || tenureMonths <= 0 {
		return Result{}, false
	}

	monthlyRate := mathutil.MonthlyRate(annualRatePercent)
	months := float64(tenureMonths)
	growth := math.Pow(1+monthlyRate, months)
	// A rate too small to move (1+r)^n off 1.0 behaves like a zero rate.
	if growth <= 1 || math.IsInf(growth, 1) {
		return Result{}, false
	}

	installment := principal * monthlyRate * growth / (growth - 1)
	if !mathutil.IsFinitePositive(installment) {
		return Result{}, false
	}

	// The totals must stay finite for the shares to sum to 100.
	totalAmount := installment * months
	totalInterest := totalAmount - principal
	if !mathutil.IsFinitePositive(totalAmount) || math.IsInf(totalInterest, 0) || totalInterest < 0 {
		return Result{}, false
	}

	result := Result{
		MonthlyEMI:       installment,
		TotalInterest:    totalInterest,
		TotalAmount:      totalAmount,
		PrincipalPercent: mathutil.CalculatePercentage(principal, totalAmount),
		InterestPercent:  mathutil.CalculatePercentage(totalInterest, totalAmount),
	}
	if math.IsNaN(result.PrincipalPercent) || math.IsNaN(result.InterestPercent) {
		return Result{}, false
	}
	return result, true
}

// Compute runs the calculation for p.
func (p Parameters) Compute() (Result, bool) {
	return Compute(p.Principal, p.AnnualRatePercent, p.TenureMonths)
}

// Computable reports whether p would produce a result.
func (p Parameters) Computable() bool {
	_, ok := p.Compute()
	return ok
}

// YearsToMonths converts a tenure in years to whole months. Fractional years
// round to the nearest month; non-positive input, or more than
// constants.MaxTenureMonths, gives 0.
func YearsToMonths(years float64) int {
	if !mathutil.IsFinitePositive(years) {
		return 0
	}
	return roundMonths(years * constants.MonthsPerYear)
}

func roundMonths(months float64) int {
	rounded := math.Round(months)
	if rounded <= 0 || rounded > constants.MaxTenureMonths {
		return 0
	}
	return int(rounded)
}

// ParseParameters builds Parameters from raw form values. Values that fail to
// parse become zero, which leaves the parameters not computable.
func ParseParameters(principal, annualRatePercent, tenure string, unit TenureUnit) Parameters {
	params := Parameters{
		Principal:         parseNumber(principal),
		AnnualRatePercent: parseNumber(annualRatePercent),
	}

	tenureValue := parseNumber(tenure)
	switch unit {
	case Years:
		params.TenureMonths = YearsToMonths(tenureValue)
	default:
		if mathutil.IsFinitePositive(tenureValue) {
			params.TenureMonths = roundMonths(tenureValue)
		}
	}
	return params
}

// ParseTenureUnit maps free text to a TenureUnit, defaulting to Months.
func ParseTenureUnit(value string) TenureUnit {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yr", "yrs", "year", "years":
		return Years
	default:
		return Months
	}
}

func parseNumber(value string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
