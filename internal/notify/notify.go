// Package notify sends patient-facing emails about bookings, cancellations
// and prescriptions. Delivery is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-gomail/gomail"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-scheduling/internal/config"
)

type Attachment struct {
	Name string
	Data []byte
}

type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Sender is the part of gomail.Dialer the SMTP notifier needs.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SendTimeout bounds one SMTP delivery. gomail only times out the dial, so
// a stalled server would otherwise hold the caller forever.
const SendTimeout = 10 * time.Second

type SMTPNotifier struct {
	sender  Sender
	from    string
	timeout time.Duration
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return NewSMTPNotifierWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func NewSMTPNotifierWithSender(sender Sender, from string) *SMTPNotifier {
	return &SMTPNotifier{sender: sender, from: from, timeout: SendTimeout}
}

// WithSendTimeout replaces the per-message delivery bound.
func (n *SMTPNotifier) WithSendTimeout(d time.Duration) *SMTPNotifier {
	n.timeout = d
	return n
}

func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("send %q: empty recipient", msg.Subject)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	// The send goroutine outlives a timed-out call until the dialer gives up.
	done := make(chan error, 1)
	go func() { done <- n.sender.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, ctx.Err())
	}
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email not sent, smtp disabled")
	return nil
}

// New picks the SMTP notifier when a host is configured.
func New(cfg config.SMTPConfig, logger zerolog.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg)
	}
	return NewLogNotifier(logger)
}
