package leads

import (
	"fmt"
	"strings"

	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/mailto"
)

const toBeDiscussed = "To be discussed"

// ConsultationDraft is the email a visitor can send from their own client as a
// second channel after submitting the form.
func ConsultationDraft(req ConsultationRequest, to []string, grouping format.Grouping) mailto.Draft {
	message := req.Message
	if message == "" {
		message = "Please contact me for consultation."
	}

	var body strings.Builder
	body.WriteString("Dear KK Financial Team,\n\n")
	body.WriteString("I am interested in your loan consultation services. Here are my details:\n\n")
	fmt.Fprintf(&body, "Name: %s\n", req.FullName)
	fmt.Fprintf(&body, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&body, "Email: %s\n", req.Email)
	fmt.Fprintf(&body, "City: %s\n", req.City)
	fmt.Fprintf(&body, "Loan Type: %s\n", req.LoanType.Label())
	fmt.Fprintf(&body, "Loan Amount: %s\n", format.Describe(req.LoanAmount, grouping, toBeDiscussed))
	fmt.Fprintf(&body, "Monthly Income: %s\n\n", format.Describe(req.Income, grouping, toBeDiscussed))
	fmt.Fprintf(&body, "Message: %s\n\n", message)
	body.WriteString("Please contact me at your earliest convenience.\n\n")
	fmt.Fprintf(&body, "Best regards,\n%s", req.FullName)

	return mailto.Draft{
		To:      append([]string(nil), to...),
		Subject: "Loan Consultation Request - " + req.FullName,
		Body:    body.String(),
	}
}

// FeedbackDraft is the email carrying a feedback submission.
func FeedbackDraft(f Feedback, to []string) mailto.Draft {
	var body strings.Builder
	body.WriteString("Dear KK Financial Team,\n\n")
	body.WriteString("A customer has submitted feedback through your website:\n\n")
	body.WriteString("Customer Details:\n")
	fmt.Fprintf(&body, "Name: %s\n", f.DisplayName())
	fmt.Fprintf(&body, "Email: %s\n\n", f.DisplayEmail())
	body.WriteString("Feedback Details:\n")
	fmt.Fprintf(&body, "Service Category: %s\n", f.ServiceCategory)
	fmt.Fprintf(&body, "Rating: %d out of 5 stars (%s)\n", f.Rating, RatingLabel(f.Rating))
	fmt.Fprintf(&body, "Message: %s\n\n", f.Message)
	if !f.SubmittedAt.IsZero() {
		fmt.Fprintf(&body, "This feedback was submitted on %s.\n\n", f.SubmittedAt.Format("02 Jan 2006 at 15:04 MST"))
	}
	body.WriteString("Best regards,\nWebsite Feedback System")

	return mailto.Draft{
		To:      append([]string(nil), to...),
		Subject: fmt.Sprintf("Customer Feedback - %s (%d Stars)", f.ServiceCategory, f.Rating),
		Body:    body.String(),
	}
}
