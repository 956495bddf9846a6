package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/pkg/logger"
)

// EmailMessage is a rendered email ready for a transport.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// DeliveryReceipt describes what a transport did with a message.
type DeliveryReceipt struct {
	MessageID string
	Mode      string
}

// MailTransport delivers rendered messages. Implementations must be safe
// for concurrent use.
type MailTransport interface {
	Send(ctx context.Context, msg *EmailMessage) (*DeliveryReceipt, error)
	Mode() string
}

// NewMailTransport picks the SMTP transport when credentials are configured
// and the logging mock otherwise.
func NewMailTransport(cfg *config.EmailConfig) MailTransport {
	if cfg.UseMock() {
		logger.Infof("[Email] SMTP credentials absent or mock requested, using development mock transport")
		return NewMockTransport()
	}
	logger.Infof("[Email] SMTP transport configured for %s:%d", cfg.Host, cfg.Port)
	return NewSMTPTransport(cfg)
}

const (
	ModeSMTP = "smtp"
	ModeMock = "development-mock"
)

// SMTPTransport sends mail through an SMTP relay, using STARTTLS when the
// server offers it or implicit TLS when UseTLS is set.
type SMTPTransport struct {
	cfg     config.EmailConfig
	timeout time.Duration
}

func NewSMTPTransport(cfg *config.EmailConfig) *SMTPTransport {
	return &SMTPTransport{cfg: *cfg, timeout: 10 * time.Second}
}

func (t *SMTPTransport) Mode() string { return ModeSMTP }

func (t *SMTPTransport) from() string {
	if t.cfg.From != "" {
		return t.cfg.From
	}
	return t.cfg.Username
}

func (t *SMTPTransport) Send(ctx context.Context, msg *EmailMessage) (*DeliveryReceipt, error) {
	from := t.from()
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.cfg.Host)
	data := buildMIMEMessage(t.cfg.FromName, from, messageID, msg)

	addr := net.JoinHostPort(t.cfg.Host, fmt.Sprint(t.cfg.Port))

	var auth smtp.Auth
	if t.cfg.Username != "" && t.cfg.Password != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}

	if err := t.deliver(ctx, addr, auth, from, msg.To, data); err != nil {
		return nil, err
	}
	return &DeliveryReceipt{MessageID: messageID, Mode: ModeSMTP}, nil
}

func (t *SMTPTransport) deliver(ctx context.Context, addr string, auth smtp.Auth, from, to string, data []byte) error {
	dialer := &net.Dialer{Timeout: t.timeout}
	ctx, cancel := context.WithTimeout(ctx, 3*t.timeout)
	defer cancel()

	var conn net.Conn
	var err error
	if t.cfg.UseTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: t.cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp4", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp4", addr)
	}
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if !t.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
				return err
			}
		}
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMIMEMessage assembles a multipart/alternative message with a plain
// text part and an HTML part.
func buildMIMEMessage(fromName, from, messageID string, msg *EmailMessage) []byte {
	boundary := "naccer-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var b strings.Builder
	if fromName != "" {
		b.WriteString(fmt.Sprintf("From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), from))
	} else {
		b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	}
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	b.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary))

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.TextBody)
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return []byte(b.String())
}

// MockTransport logs a preview of every message instead of sending it.
type MockTransport struct{}

func NewMockTransport() *MockTransport { return &MockTransport{} }

func (t *MockTransport) Mode() string { return ModeMock }

func (t *MockTransport) Send(ctx context.Context, msg *EmailMessage) (*DeliveryReceipt, error) {
	preview := msg.TextBody
	if r := []rune(preview); len(r) > 200 {
		preview = string(r[:200]) + "..."
	}
	logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("preview", preview).
		Msg("[Email] development mock, message not sent")
	return &DeliveryReceipt{MessageID: "dev-" + uuid.NewString(), Mode: ModeMock}, nil
}
