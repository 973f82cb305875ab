// Package output provides utilities for formatting and displaying EMI results.
package output

import (
	"fmt"
	"io"

	"github.com/kkfinancial/loan-consult/pkg/emi"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/tenure"
)

// PrettyFormat writes a human-readable summary of the loan followed by the
// yearly breakdown when one is given.
func PrettyFormat(w io.Writer, p emi.Parameters, r emi.Result, yearly []emi.YearSummary, grouping format.Grouping) error {
	rupees := func(v float64) string { return format.Rupees(v, grouping) }

	lines := []string{
		fmt.Sprintf("--- EMI for %s at %.2f%% over %s ---\n", rupees(p.Principal), p.AnnualRatePercent, tenure.Describe(p.TenureMonths)),
		fmt.Sprintf("Monthly EMI      | %s\n", rupees(r.MonthlyEMI)),
		fmt.Sprintf("Principal Amount | %s\n", rupees(p.Principal)),
		fmt.Sprintf("Total Interest   | %s\n", rupees(r.TotalInterest)),
		fmt.Sprintf("Total Amount     | %s\n", rupees(r.TotalAmount)),
		fmt.Sprintf("Principal Share  | %s\n", format.Percent(r.PrincipalPercent)),
		fmt.Sprintf("Interest Share   | %s\n", format.Percent(r.InterestPercent)),
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}

	if len(yearly) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nYear | Paid | Principal | Interest | Balance\n____ | ____ | _________ | ________ | _______\n"); err != nil {
		return err
	}
	for _, y := range yearly {
		if _, err := fmt.Fprintf(w, "%4d | %s | %s | %s | %s\n",
			y.Year, rupees(y.Payment), rupees(y.Principal), rupees(y.Interest), rupees(y.ClosingBalance)); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat writes the loan summary in comma-separated value format. When a
// schedule is given it follows the summary after a blank line, one row per
// month.
func CsvFormat(w io.Writer, p emi.Parameters, r emi.Result, schedule []emi.Installment) error {
	if _, err := fmt.Fprintf(w, `"principal","annual rate","tenure months","monthly emi","total interest","total amount","principal percent","interest percent"`+"\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `"%.2f","%.2f","%d","%.2f","%.2f","%.2f","%.2f","%.2f"`+"\n",
		p.Principal, p.AnnualRatePercent, p.TenureMonths,
		r.MonthlyEMI, r.TotalInterest, r.TotalAmount, r.PrincipalPercent, r.InterestPercent); err != nil {
		return err
	}

	if len(schedule) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\n"+`"month","payment","principal","interest","balance"`+"\n"); err != nil {
		return err
	}
	for _, inst := range schedule {
		if _, err := fmt.Fprintf(w, `"%d","%.2f","%.2f","%.2f","%.2f"`+"\n",
			inst.Month, inst.Payment, inst.Principal, inst.Interest, inst.Balance); err != nil {
			return err
		}
	}
	return nil
}
