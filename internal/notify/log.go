// Package notify delivers new-lead and feedback notifications to the business.
package notify

import (
	"context"

	"github.com/kkfinancial/loan-consult/internal/config"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. It is used when no SMTP server
// is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyConsultation logs the lead.
func (n *LogNotifier) NotifyConsultation(_ context.Context, lead leads.Lead) error {
	n.logger.Info("new consultation request",
		zap.String("op", "notify.NotifyConsultation"),
		zap.String("id", lead.ID),
		zap.String("name", lead.FullName),
		zap.String("phone", lead.Phone),
		zap.String("email", lead.Email),
		zap.String("city", lead.City),
		zap.String("loanType", lead.LoanType.Label()),
		zap.String("loanAmount", lead.LoanAmount),
	)
	return nil
}

// NotifyFeedback logs the feedback.
func (n *LogNotifier) NotifyFeedback(_ context.Context, f leads.Feedback) error {
	n.logger.Info("new customer feedback",
		zap.String("op", "notify.NotifyFeedback"),
		zap.String("name", f.DisplayName()),
		zap.String("category", f.ServiceCategory),
		zap.Int("rating", f.Rating),
	)
	return nil
}

// New returns an SMTPNotifier when cfg.SMTP is configured and a LogNotifier
// otherwise.
func New(cfg config.NotifyConfig, logger *zap.Logger) (leads.Notifier, error) {
	if !cfg.SMTP.Enabled() {
		return NewLogNotifier(logger), nil
	}
	return NewSMTPNotifier(cfg, logger)
}
