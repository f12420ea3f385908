package lead

import (
	"context"
	"errors"
	"log/slog"

	"github.com/znz-systems/leadform/internal/mail"
	"github.com/znz-systems/leadform/internal/models"
	"github.com/znz-systems/leadform/internal/validate"
)

// Endpoint labels used for logs and metrics.
const (
	EndpointContact = "contact"
	EndpointInquiry = "oa-inquiry"
)

// Saver persists a lead and assigns its id and timestamp.
type Saver interface {
	Save(ctx context.Context, name, email, message string) (*models.Lead, error)
}

// Dispatcher forwards a notification. It never fails the caller.
type Dispatcher interface {
	Send(ctx context.Context, msg *mail.Message) mail.Outcome
}

// Recorder receives counters for accepted, rejected and notified leads.
type Recorder interface {
	LeadSaved(endpoint string)
	Rejected(endpoint, reason string)
	MailDispatched(sent bool)
}

type noopRecorder struct{}

func (noopRecorder) LeadSaved(string)        {}
func (noopRecorder) Rejected(string, string) {}
func (noopRecorder) MailDispatched(bool)     {}

// Result is what a caller learns about an accepted submission.
type Result struct {
	Lead      *models.Lead
	EmailSent bool
}

// Service runs validate, save, then notify for each submission.
type Service struct {
	leads    Saver
	mailer   Dispatcher
	recorder Recorder
}

// NewService creates a new lead Service. A nil recorder disables metrics.
func NewService(leads Saver, mailer Dispatcher, recorder Recorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		leads:    leads,
		mailer:   mailer,
		recorder: recorder,
	}
}

// SubmitContact accepts a generic contact submission. Validation errors are
// validate.ErrInvalidInput or validate.ErrInputTooLong; persistence errors
// wrap ErrStorage and mean no mail was sent.
func (s *Service) SubmitContact(ctx context.Context, name, email, message string) (*Result, error) {
	c, err := validate.Contact(name, email, message)
	if err != nil {
		s.recorder.Rejected(EndpointContact, reason(err))
		return nil, err
	}

	lead, err := s.leads.Save(ctx, c.Name, c.Email, c.Message)
	if err != nil {
		return nil, err
	}
	s.recorder.LeadSaved(EndpointContact)

	out := s.mailer.Send(ctx, &mail.Message{
		Subject: mail.ContactSubject(c.Name),
		Body:    mail.ContactNotificationBody(c.Name, c.Email, c.Message),
		ReplyTo: c.Email,
	})
	s.notified(ctx, EndpointContact, lead, out)

	return &Result{Lead: lead, EmailSent: out.Sent}, nil
}

// SubmitInquiry accepts an open-access inquiry. The stored message is a
// summary of the structured fields; the attachment only travels by mail.
func (s *Service) SubmitInquiry(ctx context.Context, in validate.InquiryInput) (*Result, error) {
	q, err := validate.Inquiry(in)
	if err != nil {
		s.recorder.Rejected(EndpointInquiry, reason(err))
		return nil, err
	}

	summary := mail.InquirySummary(q)
	if err := validate.Message(summary); err != nil {
		s.recorder.Rejected(EndpointInquiry, reason(err))
		return nil, err
	}

	lead, err := s.leads.Save(ctx, q.Name, q.Email, summary)
	if err != nil {
		return nil, err
	}
	s.recorder.LeadSaved(EndpointInquiry)

	msg := &mail.Message{
		Subject: mail.InquirySubject(q, lead.ID),
		Body:    mail.InquiryNotificationBody(q, lead),
		ReplyTo: q.Email,
	}
	if q.EBBill != nil {
		msg.Attachments = []models.Attachment{*q.EBBill}
	}
	out := s.mailer.Send(ctx, msg)
	s.notified(ctx, EndpointInquiry, lead, out)

	return &Result{Lead: lead, EmailSent: out.Sent}, nil
}

func (s *Service) notified(ctx context.Context, endpoint string, lead *models.Lead, out mail.Outcome) {
	s.recorder.MailDispatched(out.Sent)
	if !out.Sent {
		slog.WarnContext(ctx, "lead saved without notification",
			"endpoint", endpoint,
			"lead_id", lead.ID,
			"error", out.Err,
		)
	}
}

func reason(err error) string {
	if errors.Is(err, validate.ErrInputTooLong) {
		return "too_long"
	}
	return "invalid_input"
}
