package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/pkg/config"
)

// Message is a rendered HTML email for a single recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

// Mailer delivers a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Configurer is implemented by mailers that can report whether mail actually
// leaves the process.
type Configurer interface {
	Configured() bool
}

// Configured reports whether m delivers real mail. Mailers that do not
// implement Configurer are assumed to deliver.
func Configured(m Mailer) bool {
	if m == nil {
		return false
	}
	if c, ok := m.(Configurer); ok {
		return c.Configured()
	}
	return true
}

// New returns an SMTP mailer when a relay is configured and a log-only
// mailer otherwise.
func New(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		logger.Warn("smtp relay not configured, outbound mail will only be logged")
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an authenticated relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send sendFunc
}

// Configured is always true for a relay-backed mailer.
func (m *SMTPMailer) Configured() bool { return true }

// Send delivers msg. The context is only checked before dialing since
// net/smtp has no cancellation hook.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mail recipient required")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	payload := buildMessage(m.cfg.Sender, m.cfg.SenderName, msg, time.Now())
	if err := m.send(addr, auth, m.cfg.Sender, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer records messages instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// Configured is false: nothing is delivered.
func (m *LogMailer) Configured() bool { return false }

// Send logs the envelope.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("mail not sent, smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

func buildMessage(sender, senderName string, msg Message, now time.Time) []byte {
	var b strings.Builder
	if senderName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", headerValue(senderName), sender)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", sender)
	}
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(msg.To))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerValue(msg.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	domain := "localhost"
	if at := strings.LastIndex(sender, "@"); at >= 0 && at < len(sender)-1 {
		domain = sender[at+1:]
	}
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// headerValue strips line breaks so user input cannot add headers.
func headerValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(v))
}
