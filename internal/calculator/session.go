// Package calculator keeps the state of one interactive EMI calculator: raw
// field values go in, and every change produces a fresh snapshot for the
// subscribers.
package calculator

import (
	"strconv"
	"sync"

	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/emi"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/tenure"
)

// Inputs are the calculator fields as typed.
type Inputs struct {
	Principal string         `json:"principal"`
	Rate      string         `json:"rate"`
	Tenure    string         `json:"tenure"`
	Unit      emi.TenureUnit `json:"tenureUnit"`
}

// DefaultInputs is the calculator's starting state.
func DefaultInputs() Inputs {
	return Inputs{
		Principal: strconv.FormatFloat(constants.DefaultLoanAmount, 'f', -1, 64),
		Rate:      strconv.FormatFloat(constants.DefaultInterestRate, 'f', -1, 64),
		Tenure:    strconv.Itoa(constants.DefaultTenureYears),
		Unit:      emi.Years,
	}
}

// Update changes some fields. Nil fields are left alone.
type Update struct {
	Principal *string `json:"principal,omitempty"`
	Rate      *string `json:"rate,omitempty"`
	Tenure    *string `json:"tenure,omitempty"`
	Unit      *string `json:"tenureUnit,omitempty"`
}

// Display holds presentation strings for a result.
type Display struct {
	MonthlyEMI       string `json:"monthlyEMI"`
	Principal        string `json:"principal"`
	TotalInterest    string `json:"totalInterest"`
	TotalAmount      string `json:"totalAmount"`
	PrincipalPercent string `json:"principalPercent"`
	InterestPercent  string `json:"interestPercent"`
	Tenure           string `json:"tenure"`
}

// Snapshot is the calculator state after an update. Result and Display are
// only meaningful when Computable is true.
type Snapshot struct {
	Version    uint64         `json:"version"`
	Inputs     Inputs         `json:"inputs"`
	Parameters emi.Parameters `json:"parameters"`
	Computable bool           `json:"computable"`
	Result     *emi.Result    `json:"result,omitempty"`
	Display    *Display       `json:"display,omitempty"`
}

// Evaluate parses in and computes its snapshot.
func Evaluate(in Inputs, grouping format.Grouping) Snapshot {
	params := emi.ParseParameters(in.Principal, in.Rate, in.Tenure, in.Unit)
	return EvaluateParameters(in, params, grouping)
}

// EvaluateParameters computes the snapshot for already parsed parameters.
func EvaluateParameters(in Inputs, params emi.Parameters, grouping format.Grouping) Snapshot {
	snap := Snapshot{Inputs: in, Parameters: params}
	result, ok := params.Compute()
	if !ok {
		return snap
	}
	snap.Computable = true
	snap.Result = &result
	display := NewDisplay(params, result, grouping)
	snap.Display = &display
	return snap
}

// NewDisplay renders result with rounding applied only here.
func NewDisplay(params emi.Parameters, result emi.Result, grouping format.Grouping) Display {
	return Display{
		MonthlyEMI:       format.Rupees(result.MonthlyEMI, grouping),
		Principal:        format.Rupees(params.Principal, grouping),
		TotalInterest:    format.Rupees(result.TotalInterest, grouping),
		TotalAmount:      format.Rupees(result.TotalAmount, grouping),
		PrincipalPercent: format.Percent(result.PrincipalPercent),
		InterestPercent:  format.Percent(result.InterestPercent),
		Tenure:           tenure.Describe(params.TenureMonths),
	}
}

// Session is a calculator whose subscribers are told about every change.
// It is safe for concurrent use.
type Session struct {
	applyMu  sync.Mutex
	mu       sync.Mutex
	version  uint64
	inputs   Inputs
	current  Snapshot
	grouping format.Grouping
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewSession starts a session at initial.
func NewSession(initial Inputs, grouping format.Grouping) *Session {
	return &Session{
		inputs:   initial,
		current:  Evaluate(initial, grouping),
		grouping: grouping,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn for future snapshots and returns a function that
// removes it. fn runs on the goroutine calling Apply and must not call back
// into the session.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Apply merges u into the inputs, recomputes and notifies subscribers.
// Concurrent calls are serialized so subscribers see versions in order.
func (s *Session) Apply(u Update) Snapshot {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if u.Principal != nil {
		s.inputs.Principal = *u.Principal
	}
	if u.Rate != nil {
		s.inputs.Rate = *u.Rate
	}
	if u.Tenure != nil {
		s.inputs.Tenure = *u.Tenure
	}
	if u.Unit != nil {
		s.inputs.Unit = emi.ParseTenureUnit(*u.Unit)
	}
	s.version++
	snap := Evaluate(s.inputs, s.grouping)
	snap.Version = s.version
	s.current = snap

	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}
