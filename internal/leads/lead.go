// Package leads holds the consultation-request domain: the request schema,
// stored leads and their status, feedback, and the service that accepts them.
package leads

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kkfinancial/loan-consult/pkg/constants"
)

var (
	// ErrNotFound is returned when no lead has the requested id.
	ErrNotFound = errors.New("consultation request not found")
	// ErrInvalidStatus is returned for a status outside pending/contacted/completed.
	ErrInvalidStatus = errors.New("invalid status value")
)

// LoanType is the product a visitor is asking about.
type LoanType string

// Loan types offered on the consultation form.
const (
	LoanHousing   LoanType = "housing"
	LoanProperty  LoanType = "lap"
	LoanPersonal  LoanType = "personal"
	LoanBusiness  LoanType = "business"
	LoanVehicle   LoanType = "vehicle"
	LoanEducation LoanType = "education"
	LoanOther     LoanType = "other"
)

// LoanTypes lists every LoanType in form order.
var LoanTypes = []LoanType{LoanHousing, LoanProperty, LoanPersonal, LoanBusiness, LoanVehicle, LoanEducation, LoanOther}

// Label is the human name of the loan type.
func (t LoanType) Label() string {
	switch t {
	case LoanHousing:
		return "Housing Loan"
	case LoanProperty:
		return "Loan Against Property"
	case LoanPersonal:
		return "Personal Loan"
	case LoanBusiness:
		return "Business Loan"
	case LoanVehicle:
		return "Vehicle Loan"
	case LoanEducation:
		return "Education Loan"
	case LoanOther:
		return "Other"
	default:
		return string(t)
	}
}

// Status tracks follow-up on a lead.
type Status string

// Lead statuses.
const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusPending, StatusContacted, StatusCompleted:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

// ConsultationRequest is what a visitor submits from the contact form.
type ConsultationRequest struct {
	FullName   string   `json:"fullName" validate:"required,min=2"`
	Phone      string   `json:"phone" validate:"required,inmobile"`
	Email      string   `json:"email" validate:"required,email"`
	City       string   `json:"city"`
	LoanType   LoanType `json:"loanType" validate:"required,oneof=housing lap personal business vehicle education other"`
	LoanAmount string   `json:"loanAmount,omitempty" validate:"max=64"`
	Income     string   `json:"income,omitempty" validate:"max=64"`
	Message    string   `json:"message,omitempty" validate:"max=2000"`
	Consent    bool     `json:"consent"`
}

// consultationMessages mirror the wording shown next to the form fields.
var consultationMessages = map[string]string{
	"fullName":   "Name must be at least 2 characters",
	"phone":      "Please enter a valid 10-digit mobile number",
	"email":      "Please enter a valid email address",
	"loanType":   "Please select a loan type",
	"loanAmount": "Loan amount must be at most 64 characters",
	"income":     "Monthly income must be at most 64 characters",
	"message":    "Message must be at most 2000 characters",
}

// Normalize trims every text field and applies defaults.
func (r *ConsultationRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.City = strings.TrimSpace(r.City)
	r.LoanType = LoanType(strings.ToLower(strings.TrimSpace(string(r.LoanType))))
	r.LoanAmount = strings.TrimSpace(r.LoanAmount)
	r.Income = strings.TrimSpace(r.Income)
	r.Message = strings.TrimSpace(r.Message)
	if r.City == "" {
		r.City = constants.DefaultCity
	}
}

// Lead is a stored consultation request.
type Lead struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status"`
	ConsultationRequest
}

// NewLead stamps req with an id, a creation time and the pending status.
func NewLead(req ConsultationRequest, id string, createdAt time.Time) Lead {
	return Lead{
		ID:                  id,
		CreatedAt:           createdAt.UTC(),
		Status:              StatusPending,
		ConsultationRequest: req,
	}
}
