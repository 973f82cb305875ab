package emi

import (
	"math"
	"testing"

	"github.com/kkfinancial/loan-consult/pkg/constants"
)

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		rate          float64
		months        int
		expectedEMI   float64
		expectedTotal float64 // zero skips the check
		totalSlack    float64
	}{
		{
			name:          "20-year housing loan",
			principal:     2_500_000,
			rate:          8.5,
			months:        240,
			expectedEMI:   21696,
			expectedTotal: 5_207_000,
			totalSlack:    1000,
		},
		{
			name:        "1-year personal loan",
			principal:   100_000,
			rate:        10,
			months:      12,
			expectedEMI: 8792,
		},
		{
			name:        "10-year loan against property",
			principal:   1_000_000,
			rate:        9,
			months:      120,
			expectedEMI: 12668,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := Compute(tt.principal, tt.rate, tt.months)
			if !ok {
				t.Fatalf("Compute(%v, %v, %d) returned no result", tt.principal, tt.rate, tt.months)
			}
			if got := math.Round(result.MonthlyEMI); got != tt.expectedEMI {
				t.Errorf("rounded EMI = %.0f, expected %.0f (raw %.6f)", got, tt.expectedEMI, result.MonthlyEMI)
			}
			if tt.expectedTotal > 0 && math.Abs(result.TotalAmount-tt.expectedTotal) > tt.totalSlack {
				t.Errorf("TotalAmount = %.2f, expected about %.0f", result.TotalAmount, tt.expectedTotal)
			}
			if math.Abs(result.TotalInterest-(result.TotalAmount-tt.principal)) > 1e-6 {
				t.Errorf("TotalInterest = %.6f, expected TotalAmount - principal = %.6f",
					result.TotalInterest, result.TotalAmount-tt.principal)
			}
		})
	}
}

func TestComputeHousingLoanInterest(t *testing.T) {
	result, ok := Compute(2_500_000, 8.5, 240)
	if !ok {
		t.Fatal("expected a result")
	}
	if math.Abs(result.TotalInterest-2_707_000) > 1000 {
		t.Errorf("TotalInterest = %.2f, expected about 2,707,000", result.TotalInterest)
	}
}

func TestComputeNotComputable(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		months    int
	}{
		{"Zero principal", 0, 8.5, 240},
		{"Zero rate", 500_000, 0, 60},
		{"Zero tenure", 500_000, 8.5, 0},
		{"Negative principal", -1, 8.5, 240},
		{"Negative rate", 500_000, -2, 60},
		{"Negative tenure", 500_000, 8.5, -12},
		{"NaN principal", math.NaN(), 8.5, 240},
		{"Infinite rate", 500_000, math.Inf(1), 60},
		{"Rate too small to register", 500_000, 1e-18, 60},
		{"Total overflows", 1e308, 10, 360},
		{"Largest principal", math.MaxFloat64, 25, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := Compute(tt.principal, tt.rate, tt.months)
			if ok {
				t.Fatalf("expected no result, got %+v", result)
			}
			if result != (Result{}) {
				t.Errorf("expected zero Result alongside no result, got %+v", result)
			}
		})
	}
}

func TestComputeInvariants(t *testing.T) {
	principals := []float64{50_000, 123_456.78, 2_500_000, 50_000_000}
	rates := []float64{0.5, 6, 8.5, 13.25, 25, 36}
	tenures := []int{1, 6, 12, 60, 240, 360}

	for _, principal := range principals {
		for _, rate := range rates {
			for _, months := range tenures {
				result, ok := Compute(principal, rate, months)
				if !ok {
					t.Fatalf("Compute(%v, %v, %d) returned no result", principal, rate, months)
				}

				if result.MonthlyEMI <= 0 {
					t.Errorf("Compute(%v, %v, %d): EMI %v is not positive", principal, rate, months, result.MonthlyEMI)
				}
				if result.TotalInterest < 0 {
					t.Errorf("Compute(%v, %v, %d): negative interest %v", principal, rate, months, result.TotalInterest)
				}

				expectedTotal := result.MonthlyEMI * float64(months)
				if math.Abs(result.TotalAmount-expectedTotal)/expectedTotal > constants.RelativeTolerance {
					t.Errorf("Compute(%v, %v, %d): TotalAmount %v != EMI*n %v", principal, rate, months, result.TotalAmount, expectedTotal)
				}

				sum := result.PrincipalPercent + result.InterestPercent
				if math.Abs(sum-100) > constants.PercentTolerance {
					t.Errorf("Compute(%v, %v, %d): shares sum to %v", principal, rate, months, sum)
				}
			}
		}
	}
}

func TestComputeExtremeMagnitude(t *testing.T) {
	result, ok := Compute(1e300, 10, 360)
	if !ok {
		t.Fatal("expected a result for a large but finite total")
	}
	for name, v := range map[string]float64{
		"MonthlyEMI":       result.MonthlyEMI,
		"TotalInterest":    result.TotalInterest,
		"TotalAmount":      result.TotalAmount,
		"PrincipalPercent": result.PrincipalPercent,
		"InterestPercent":  result.InterestPercent,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", name, v)
		}
	}
	if sum := result.PrincipalPercent + result.InterestPercent; math.Abs(sum-100) > constants.PercentTolerance {
		t.Errorf("shares sum to %v", sum)
	}
}

func TestComputeMonotonicInPrincipal(t *testing.T) {
	previous := 0.0
	for principal := 10_000.0; principal <= 10_000_000; principal *= 1.7 {
		result, ok := Compute(principal, 9.5, 180)
		if !ok {
			t.Fatalf("Compute(%v) returned no result", principal)
		}
		if result.MonthlyEMI <= previous {
			t.Fatalf("EMI did not increase with principal: %v -> %v at principal %v", previous, result.MonthlyEMI, principal)
		}
		previous = result.MonthlyEMI
	}
}

func TestComputeMonotonicInRate(t *testing.T) {
	previous := 0.0
	for rate := 0.25; rate <= 30; rate += 0.25 {
		result, ok := Compute(1_500_000, rate, 120)
		if !ok {
			t.Fatalf("Compute at rate %v returned no result", rate)
		}
		if result.MonthlyEMI <= previous {
			t.Fatalf("EMI did not increase with rate: %v -> %v at rate %v", previous, result.MonthlyEMI, rate)
		}
		previous = result.MonthlyEMI
	}
}

func TestParametersCompute(t *testing.T) {
	p := Parameters{Principal: 100_000, AnnualRatePercent: 10, TenureMonths: 12}
	direct, _ := Compute(100_000, 10, 12)
	viaMethod, ok := p.Compute()
	if !ok {
		t.Fatal("expected a result")
	}
	if direct != viaMethod {
		t.Errorf("Parameters.Compute() = %+v, expected %+v", viaMethod, direct)
	}
	if !p.Computable() {
		t.Error("expected parameters to be computable")
	}
	if (Parameters{Principal: 100_000, TenureMonths: 12}).Computable() {
		t.Error("expected zero rate to be not computable")
	}
}

func TestYearsToMonths(t *testing.T) {
	tests := []struct {
		years    float64
		expected int
	}{
		{20, 240},
		{1, 12},
		{1.5, 18},
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
		{1e300, 0},
	}

	for _, tt := range tests {
		if got := YearsToMonths(tt.years); got != tt.expected {
			t.Errorf("YearsToMonths(%v) = %d, expected %d", tt.years, got, tt.expected)
		}
	}
}

func TestParseParameters(t *testing.T) {
	tests := []struct {
		name       string
		principal  string
		rate       string
		tenure     string
		unit       TenureUnit
		expected   Parameters
		computable bool
	}{
		{
			name:       "Years",
			principal:  "2500000",
			rate:       "8.5",
			tenure:     "20",
			unit:       Years,
			expected:   Parameters{Principal: 2_500_000, AnnualRatePercent: 8.5, TenureMonths: 240},
			computable: true,
		},
		{
			name:       "Months with grouping separators",
			principal:  " 25,00,000 ",
			rate:       "8.5",
			tenure:     "240",
			unit:       Months,
			expected:   Parameters{Principal: 2_500_000, AnnualRatePercent: 8.5, TenureMonths: 240},
			computable: true,
		},
		{
			name:      "Garbage principal becomes zero",
			principal: "lots",
			rate:      "8.5",
			tenure:    "20",
			unit:      Years,
			expected:  Parameters{AnnualRatePercent: 8.5, TenureMonths: 240},
		},
		{
			name:     "Empty fields",
			unit:     Months,
			expected: Parameters{},
		},
		{
			name:      "Negative tenure months",
			principal: "100000",
			rate:      "10",
			tenure:    "-12",
			unit:      Months,
			expected:  Parameters{Principal: 100_000, AnnualRatePercent: 10},
		},
		{
			name:      "Tenure too long to count",
			principal: "100000",
			rate:      "10",
			tenure:    "1e300",
			unit:      Years,
			expected:  Parameters{Principal: 100_000, AnnualRatePercent: 10},
		},
		{
			name:       "Fractional months round",
			principal:  "100000",
			rate:       "10",
			tenure:     "240.5",
			unit:       Months,
			expected:   Parameters{Principal: 100_000, AnnualRatePercent: 10, TenureMonths: 241},
			computable: true,
		},
		{
			name:      "NaN is rejected",
			principal: "NaN",
			rate:      "10",
			tenure:    "12",
			unit:      Months,
			expected:  Parameters{AnnualRatePercent: 10, TenureMonths: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseParameters(tt.principal, tt.rate, tt.tenure, tt.unit)
			if got != tt.expected {
				t.Errorf("ParseParameters() = %+v, expected %+v", got, tt.expected)
			}
			if got.Computable() != tt.computable {
				t.Errorf("Computable() = %v, expected %v", got.Computable(), tt.computable)
			}
		})
	}
}

func TestParseTenureUnit(t *testing.T) {
	for _, value := range []string{"years", "Year", " y ", "YRS"} {
		if got := ParseTenureUnit(value); got != Years {
			t.Errorf("ParseTenureUnit(%q) = %q, expected years", value, got)
		}
	}
	for _, value := range []string{"", "months", "m", "weeks"} {
		if got := ParseTenureUnit(value); got != Months {
			t.Errorf("ParseTenureUnit(%q) = %q, expected months", value, got)
		}
	}
}

func TestComputeConcurrentUse(t *testing.T) {
	expected, _ := Compute(2_500_000, 8.5, 240)
	done := make(chan Result, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			result, _ := Compute(2_500_000, 8.5, 240)
			done <- result
		}()
	}
	for i := 0; i < cap(done); i++ {
		if got := <-done; got != expected {
			t.Fatalf("concurrent Compute() = %+v, expected %+v", got, expected)
		}
	}
}
