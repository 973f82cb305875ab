package leads

import (
	"strings"
	"time"
)

// Feedback is a star-rated review submitted from the feedback form.
type Feedback struct {
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail" validate:"omitempty,email"`
	ServiceCategory string    `json:"serviceCategory" validate:"notblank"`
	Rating          int       `json:"rating" validate:"gte=1,lte=5"`
	Message         string    `json:"feedbackMessage" validate:"notblank,min=5,max=2000"`
	Consent         bool      `json:"feedbackConsent" validate:"eq=true"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

var feedbackMessages = map[string]string{
	"customerEmail":   "Please enter a valid email address",
	"serviceCategory": "Please select a service category",
	"rating":          "Please provide a rating by clicking the stars",
	"feedbackMessage": "Please provide feedback (at least 5 characters)",
	"feedbackConsent": "Please agree to our feedback terms",
}

// Normalize trims text fields. Name and email defaults are applied when the
// feedback is rendered, so an omitted email is never validated.
func (f *Feedback) Normalize() {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerEmail = strings.TrimSpace(f.CustomerEmail)
	f.ServiceCategory = strings.TrimSpace(f.ServiceCategory)
	f.Message = strings.TrimSpace(f.Message)
}

// DisplayName is the customer's name or "Anonymous".
func (f Feedback) DisplayName() string {
	if f.CustomerName == "" {
		return "Anonymous"
	}
	return f.CustomerName
}

// DisplayEmail is the customer's email or "Not provided".
func (f Feedback) DisplayEmail() string {
	if f.CustomerEmail == "" {
		return "Not provided"
	}
	return f.CustomerEmail
}

// RatingLabel describes a 1-5 star rating.
func RatingLabel(rating int) string {
	switch rating {
	case 1:
		return "Poor - Needs significant improvement"
	case 2:
		return "Fair - Below expectations"
	case 3:
		return "Good - Meets expectations"
	case 4:
		return "Very Good - Exceeds expectations"
	case 5:
		return "Excellent - Outstanding service"
	default:
		return "Not rated"
	}
}
