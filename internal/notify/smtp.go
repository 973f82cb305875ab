package notify

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"time"
	texttemplate "text/template"

	"github.com/kkfinancial/loan-consult/internal/config"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
)

const submittedLayout = "02 Jan 2006 15:04 MST"

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier emails every notification to the configured recipients.
type SMTPNotifier struct {
	client     sender
	from       string
	recipients []string
	grouping   format.Grouping
	logger     *zap.Logger
}

// SMTPOption customizes an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithGrouping sets the digit grouping used for amounts in emails.
func WithGrouping(g format.Grouping) SMTPOption {
	return func(n *SMTPNotifier) { n.grouping = g }
}

func withSender(s sender) SMTPOption {
	return func(n *SMTPNotifier) { n.client = s }
}

// NewSMTPNotifier builds a go-mail client from cfg. No connection is made
// until the first notification.
func NewSMTPNotifier(cfg config.NotifyConfig, logger *zap.Logger, opts ...SMTPOption) (*SMTPNotifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("at least one notification recipient is required")
	}

	n := &SMTPNotifier{
		from:       cfg.SMTP.From,
		recipients: append([]string(nil), cfg.Recipients...),
		grouping:   format.Indian,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.client == nil {
		clientOpts := []mail.Option{
			mail.WithPort(cfg.SMTP.Port),
			mail.WithTLSPolicy(tlsPolicy(cfg.SMTP.TLS)),
			mail.WithTimeout(15 * time.Second),
		}
		if cfg.SMTP.Username != "" {
			clientOpts = append(clientOpts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(cfg.SMTP.Username),
				mail.WithPassword(cfg.SMTP.Password),
			)
		}
		client, err := mail.NewClient(cfg.SMTP.Host, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp client for %s: %w", cfg.SMTP.Host, err)
		}
		n.client = client
	}

	return n, nil
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch strings.ToLower(policy) {
	case config.TLSNone:
		return mail.NoTLS
	case config.TLSOpportunistic:
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}

type consultationData struct {
	Lead       leads.Lead
	LoanAmount string
	Income     string
	Submitted  string
}

type feedbackData struct {
	Feedback    leads.Feedback
	RatingLabel string
	Stars       string
	Submitted   string
}

// NotifyConsultation emails lead to the business with the customer as Reply-To.
func (n *SMTPNotifier) NotifyConsultation(ctx context.Context, lead leads.Lead) error {
	msg, err := n.consultationMessage(lead)
	if err != nil {
		return err
	}
	return n.send(ctx, msg, "notify.NotifyConsultation")
}

// NotifyFeedback emails f to the business.
func (n *SMTPNotifier) NotifyFeedback(ctx context.Context, f leads.Feedback) error {
	msg, err := n.feedbackMessage(f)
	if err != nil {
		return err
	}
	return n.send(ctx, msg, "notify.NotifyFeedback")
}

func (n *SMTPNotifier) consultationMessage(lead leads.Lead) (*mail.Msg, error) {
	data := consultationData{
		Lead:       lead,
		LoanAmount: format.Describe(lead.LoanAmount, n.grouping, "To be discussed"),
		Income:     format.Describe(lead.Income, n.grouping, "To be discussed"),
		Submitted:  lead.CreatedAt.Format(submittedLayout),
	}

	msg, err := n.newMessage("New Loan Consultation Request - " + lead.FullName)
	if err != nil {
		return nil, err
	}
	if lead.Email != "" {
		if err := msg.ReplyTo(lead.Email); err != nil {
			n.logger.Warn("ignoring invalid reply-to address",
				zap.String("op", "notify.consultationMessage"),
				zap.String("id", lead.ID),
				zap.Error(err),
			)
		}
	}
	if err := msg.SetBodyTextTemplate(textTemplates.Lookup("consultation.txt.tmpl"), data); err != nil {
		return nil, fmt.Errorf("failed to render consultation email: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(htmlTemplates.Lookup("consultation.html.tmpl"), data); err != nil {
		return nil, fmt.Errorf("failed to render consultation email: %w", err)
	}
	return msg, nil
}

func (n *SMTPNotifier) feedbackMessage(f leads.Feedback) (*mail.Msg, error) {
	submitted := f.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	data := feedbackData{
		Feedback:    f,
		RatingLabel: leads.RatingLabel(f.Rating),
		Stars:       strings.Repeat("★", clampRating(f.Rating)) + strings.Repeat("☆", 5-clampRating(f.Rating)),
		Submitted:   submitted.Format(submittedLayout),
	}

	msg, err := n.newMessage(fmt.Sprintf("Customer Feedback - %s (%d Stars)", f.ServiceCategory, f.Rating))
	if err != nil {
		return nil, err
	}
	if err := msg.SetBodyTextTemplate(textTemplates.Lookup("feedback.txt.tmpl"), data); err != nil {
		return nil, fmt.Errorf("failed to render feedback email: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(htmlTemplates.Lookup("feedback.html.tmpl"), data); err != nil {
		return nil, fmt.Errorf("failed to render feedback email: %w", err)
	}
	return msg, nil
}

func (n *SMTPNotifier) newMessage(subject string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", n.from, err)
	}
	if err := msg.To(n.recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipient list: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	return msg, nil
}

func (n *SMTPNotifier) send(ctx context.Context, msg *mail.Msg, op string) error {
	start := time.Now()
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	n.logger.Info("notification email sent",
		zap.String("op", op),
		zap.Int("recipients", len(n.recipients)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func clampRating(r int) int {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
