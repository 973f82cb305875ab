package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/mailto"
	"github.com/kkfinancial/loan-consult/pkg/validation"
	"go.uber.org/zap"
)

// Store keeps leads. Implementations assign the id and creation time.
type Store interface {
	Create(ctx context.Context, req ConsultationRequest) (Lead, error)
	Get(ctx context.Context, id string) (Lead, error)
	// List returns every lead, newest first.
	List(ctx context.Context) ([]Lead, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Lead, error)
}

// Notifier tells the business about new submissions.
type Notifier interface {
	NotifyConsultation(ctx context.Context, lead Lead) error
	NotifyFeedback(ctx context.Context, feedback Feedback) error
}

// Submission is the outcome of an accepted consultation request.
type Submission struct {
	Lead  Lead
	Draft mailto.Draft
}

// Service validates and stores consultation requests and feedback.
type Service struct {
	store      Store
	notifier   Notifier
	validator  *validation.Validator
	recipients []string
	grouping   format.Grouping
	now        func() time.Time
	logger     *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp feedback.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGrouping sets the digit grouping used in email drafts.
func WithGrouping(g format.Grouping) Option {
	return func(s *Service) { s.grouping = g }
}

// NewService wires a Service. recipients are the business addresses placed on
// every email draft.
func NewService(logger *zap.Logger, store Store, notifier Notifier, recipients []string, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:      store,
		notifier:   notifier,
		validator:  validation.New(),
		recipients: append([]string(nil), recipients...),
		grouping:   format.Indian,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recipients returns the business addresses used on drafts.
func (s *Service) Recipients() []string {
	return append([]string(nil), s.recipients...)
}

// Submit validates and stores req. A schema failure is returned as
// *validation.Errors. Notification failures are logged and do not fail the
// submission.
func (s *Service) Submit(ctx context.Context, req ConsultationRequest) (Submission, error) {
	req.Normalize()
	if err := s.validator.Struct(req, consultationMessages); err != nil {
		return Submission{}, err
	}
	draft := ConsultationDraft(req, s.recipients, s.grouping)

	lead, err := s.store.Create(ctx, req)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to store consultation request: %w", err)
	}

	s.logger.Info("consultation request stored",
		zap.String("op", "leads.Submit"),
		zap.String("id", lead.ID),
		zap.String("loanType", string(lead.LoanType)),
		zap.String("city", lead.City),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyConsultation(ctx, lead); err != nil {
			s.logger.Error("failed to send consultation notification",
				zap.String("op", "leads.Submit"),
				zap.String("id", lead.ID),
				zap.Error(err),
			)
		}
	}

	return Submission{Lead: lead, Draft: draft}, nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	return s.store.Get(ctx, id)
}

// List returns all leads, newest first.
func (s *Service) List(ctx context.Context) ([]Lead, error) {
	return s.store.List(ctx)
}

// UpdateStatus moves a lead to status, which must parse with ParseStatus.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (Lead, error) {
	parsed, err := ParseStatus(status)
	if err != nil {
		return Lead{}, err
	}

	lead, err := s.store.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return Lead{}, err
	}

	s.logger.Info("consultation status updated",
		zap.String("op", "leads.UpdateStatus"),
		zap.String("id", id),
		zap.String("status", string(parsed)),
	)
	return lead, nil
}

// SubmitFeedback validates f and returns its email draft. Feedback is not
// stored; the notifier and the draft are its delivery channels.
func (s *Service) SubmitFeedback(ctx context.Context, f Feedback) (mailto.Draft, error) {
	f.Normalize()
	if err := s.validator.Struct(f, feedbackMessages); err != nil {
		return mailto.Draft{}, err
	}
	f.SubmittedAt = s.now()

	if s.notifier != nil {
		if err := s.notifier.NotifyFeedback(ctx, f); err != nil {
			s.logger.Error("failed to send feedback notification",
				zap.String("op", "leads.SubmitFeedback"),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("feedback received",
		zap.String("op", "leads.SubmitFeedback"),
		zap.String("category", f.ServiceCategory),
		zap.Int("rating", f.Rating),
	)
	return FeedbackDraft(f, s.recipients), nil
}
