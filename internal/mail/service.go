package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoCredentials means the sender address or password is not configured.
var ErrNoCredentials = errors.New("mail: missing sender credentials")

// Outcome reports whether a notification left this process. A failed send is
// an outcome, not an error: the caller always gets a response.
type Outcome struct {
	Sent bool
	Err  error
}

// Config configures a Dispatcher.
type Config struct {
	Host          string
	Port          int
	From          string
	Password      string
	To            string
	Timeout       time.Duration
	RatePerMinute float64
}

// Dispatcher composes notifications and submits them to the fixed recipient.
// It holds no per-message state.
type Dispatcher struct {
	from    string
	to      string
	client  *SMTPClient
	limiter *rate.Limiter
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher. The recipient defaults to the sender.
// RatePerMinute <= 0 disables send pacing.
func NewDispatcher(cfg Config) *Dispatcher {
	to := cfg.To
	if to == "" {
		to = cfg.From
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60), 1)
	}

	var client *SMTPClient
	if cfg.From != "" && cfg.Password != "" {
		client = NewSMTPClient(cfg.Host, cfg.Port, cfg.From, cfg.Password, cfg.Timeout)
	}

	return &Dispatcher{
		from:    cfg.From,
		to:      to,
		client:  client,
		limiter: limiter,
		now:     time.Now,
	}
}

// Enabled reports whether the Dispatcher will attempt network delivery.
func (d *Dispatcher) Enabled() bool {
	return d.client != nil
}

// Send composes msg and transmits it. Every failure is logged and reported
// as Outcome{Sent: false}.
func (d *Dispatcher) Send(ctx context.Context, msg *Message) Outcome {
	if d.client == nil {
		slog.WarnContext(ctx, "missing ZOHO_EMAIL / ZOHO_APP_PASSWORD; skipping SMTP send")
		return Outcome{Err: ErrNoCredentials}
	}

	atts := decodeAttachments(msg.Attachments)
	raw, err := compose(d.from, d.to, msg, atts, d.now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to compose notification", "error", err)
		return Outcome{Err: fmt.Errorf("mail: compose: %w", err)}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		slog.WarnContext(ctx, "notification send not attempted", "error", err)
		return Outcome{Err: fmt.Errorf("mail: rate limit: %w", err)}
	}

	if err := d.client.Send(ctx, d.from, []string{d.to}, raw); err != nil {
		slog.ErrorContext(ctx, "SMTP send failed", "recipient", d.to, "error", err)
		return Outcome{Err: fmt.Errorf("mail: send to %s: %w", d.to, err)}
	}

	slog.InfoContext(ctx, "sent lead notification",
		"recipient", d.to,
		"subject", msg.Subject,
		"attachments", len(atts),
	)
	return Outcome{Sent: true}
}
