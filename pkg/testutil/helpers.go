// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/kkfinancial/loan-consult/internal/leads"
)

// Clock returns a time source that starts at start and advances by step on
// every call. A zero step freezes time.
func Clock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

// SequentialIDs returns an id generator producing prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// FindLead finds a lead by id in list.
// Returns a pointer to the lead if found, nil otherwise.
func FindLead(list []leads.Lead, id string) *leads.Lead {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

// ValidConsultation returns a request that passes validation.
func ValidConsultation() leads.ConsultationRequest {
	return leads.ConsultationRequest{
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Email:      "asha@example.com",
		City:       "Pune",
		LoanType:   leads.LoanHousing,
		LoanAmount: "2500000",
		Income:     "150000",
		Message:    "Looking to buy a flat",
		Consent:    true,
	}
}
