package emi

import (
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/mathutil"
)

// Installment holds the values for a given monthly payment.
type Installment struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// YearSummary aggregates twelve installments (fewer for a partial final year).
type YearSummary struct {
	Year           int     `json:"year"`
	Payment        float64 `json:"payment"`
	Principal      float64 `json:"principal"`
	Interest       float64 `json:"interest"`
	ClosingBalance float64 `json:"closingBalance"`
}

// Schedule produces the month-by-month amortization of the loan. It returns
// false under the same conditions as Compute, and for tenures longer than
// constants.MaxScheduleMonths.
func Schedule(p Parameters) ([]Installment, bool) {
	if p.TenureMonths > constants.MaxScheduleMonths {
		return nil, false
	}
	result, ok := p.Compute()
	if !ok {
		return nil, false
	}

	monthlyRate := mathutil.MonthlyRate(p.AnnualRatePercent)
	schedule := make([]Installment, 0, p.TenureMonths)
	balance := p.Principal

	for month := 1; month <= p.TenureMonths; month++ {
		interest := balance * monthlyRate
		principal := result.MonthlyEMI - interest
		payment := result.MonthlyEMI

		if month == p.TenureMonths || mathutil.IsZero(balance-principal) {
			// Close out the remaining balance to avoid carrying machine error.
			principal = balance
			payment = principal + interest
			balance = 0
		} else {
			balance -= principal
		}

		schedule = append(schedule, Installment{
			Month:     month,
			Payment:   payment,
			Principal: principal,
			Interest:  interest,
			Balance:   balance,
		})
		if balance == 0 {
			break
		}
	}

	return schedule, true
}

// Yearly folds a monthly schedule into per-year totals.
func Yearly(schedule []Installment) []YearSummary {
	if len(schedule) == 0 {
		return nil
	}

	years := make([]YearSummary, 0, (len(schedule)+constants.MonthsPerYear-1)/constants.MonthsPerYear)
	for _, inst := range schedule {
		year := (inst.Month-1)/constants.MonthsPerYear + 1
		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, YearSummary{Year: year})
		}
		current := &years[len(years)-1]
		current.Payment += inst.Payment
		current.Principal += inst.Principal
		current.Interest += inst.Interest
		current.ClosingBalance = inst.Balance
	}
	return years
}
