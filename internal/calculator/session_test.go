package calculator

import (
	"sync"
	"testing"

	"github.com/kkfinancial/loan-consult/pkg/emi"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestEvaluateDefaults(t *testing.T) {
	snap := Evaluate(DefaultInputs(), format.Indian)
	require.True(t, snap.Computable)
	require.NotNil(t, snap.Display)

	assert.Equal(t, 240, snap.Parameters.TenureMonths)
	assert.Equal(t, "₹21,696", snap.Display.MonthlyEMI)
	assert.Equal(t, "₹25,00,000", snap.Display.Principal)
	assert.Equal(t, "20 years", snap.Display.Tenure)
	assert.InDelta(t, 100, snap.Result.PrincipalPercent+snap.Result.InterestPercent, 1e-6)
}

func TestEvaluateInternational(t *testing.T) {
	snap := Evaluate(DefaultInputs(), format.International)
	require.True(t, snap.Computable)
	assert.Equal(t, "₹2,500,000", snap.Display.Principal)
}

func TestEvaluateNotComputable(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
	}{
		{name: "Empty", in: Inputs{}},
		{name: "Zero rate", in: Inputs{Principal: "100000", Rate: "0", Tenure: "12", Unit: emi.Months}},
		{name: "Garbage principal", in: Inputs{Principal: "lots", Rate: "9", Tenure: "12", Unit: emi.Months}},
		{name: "Negative tenure", in: Inputs{Principal: "100000", Rate: "9", Tenure: "-1", Unit: emi.Years}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Evaluate(tt.in, format.Indian)
			assert.False(t, snap.Computable)
			assert.Nil(t, snap.Result)
			assert.Nil(t, snap.Display)
		})
	}
}

func TestSessionApplyPartialUpdates(t *testing.T) {
	s := NewSession(DefaultInputs(), format.Indian)
	require.True(t, s.Snapshot().Computable)

	snap := s.Apply(Update{Principal: str("100000"), Rate: str("10")})
	assert.Equal(t, "20", snap.Inputs.Tenure, "untouched fields keep their value")

	snap = s.Apply(Update{Tenure: str("12"), Unit: str("months")})
	require.True(t, snap.Computable)
	assert.Equal(t, "₹8,792", snap.Display.MonthlyEMI)

	snap = s.Apply(Update{Principal: str("")})
	assert.False(t, snap.Computable)
	assert.Equal(t, snap, s.Snapshot())

	snap = s.Apply(Update{Principal: str("1,00,000")})
	assert.True(t, snap.Computable)
}

func TestSessionSubscribers(t *testing.T) {
	s := NewSession(DefaultInputs(), format.Indian)

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.Apply(Update{Rate: str("9")})
	s.Apply(Update{Rate: str("")})
	require.Len(t, got, 2)
	assert.True(t, got[0].Computable)
	assert.False(t, got[1].Computable)
	assert.Less(t, got[0].Version, got[1].Version)

	unsubscribe()
	s.Apply(Update{Rate: str("9")})
	assert.Len(t, got, 2)
}

func TestSessionConcurrentApplyDeliversInOrder(t *testing.T) {
	s := NewSession(DefaultInputs(), format.Indian)

	var mu sync.Mutex
	var versions []uint64
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		versions = append(versions, snap.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Apply(Update{Principal: str("100000")})
		}(i)
	}
	wg.Wait()

	require.Len(t, versions, 50)
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}
	assert.Equal(t, uint64(50), s.Snapshot().Version)
}
