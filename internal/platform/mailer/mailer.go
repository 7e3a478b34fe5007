package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	applicationports "rmas/contexts/membership/application-service/ports"
	documentports "rmas/contexts/membership/document-service/ports"
)

// SMTP delivers mail over a plain SMTP relay. Attachments go out as a simple
// multipart message with base64 body parts.
type SMTP struct {
	addr   string
	from   string
	logger *slog.Logger
}

func NewSMTP(addr string, from string, logger *slog.Logger) *SMTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTP{
		addr:   addr,
		from:   from,
		logger: logger,
	}
}

// Deliver runs one SMTP session bounded by the context deadline. The deadline
// covers the dial and every read and write on the connection, so a stalled
// relay fails the attempt instead of parking the goroutine.
func (m *SMTP) Deliver(ctx context.Context, to string, subject string, body string, attachment []byte, attachmentName string) error {
	message := m.compose(to, subject, body, attachment, attachmentName)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(15 * time.Second)
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("smtp deadline: %w", err)
	}

	host := m.addr
	if h, _, splitErr := net.SplitHostPort(m.addr); splitErr == nil {
		host = h
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(message); err != nil {
		writer.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp finish: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}

	m.logger.Debug("mail delivered",
		"event", "mail_delivered",
		"module", "internal/platform/mailer",
		"layer", "platform",
		"subject", subject,
	)
	return nil
}

func (m *SMTP) compose(to string, subject string, body string, attachment []byte, attachmentName string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + m.from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")

	if len(attachment) == 0 {
		builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		builder.WriteString(body)
		return []byte(builder.String())
	}

	const boundary = "rmas-mail-boundary"
	builder.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")
	builder.WriteString("--" + boundary + "\r\n")
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	builder.WriteString(body + "\r\n")
	builder.WriteString("--" + boundary + "\r\n")
	builder.WriteString("Content-Type: application/pdf\r\n")
	builder.WriteString("Content-Transfer-Encoding: base64\r\n")
	builder.WriteString("Content-Disposition: attachment; filename=\"" + attachmentName + "\"\r\n\r\n")
	builder.WriteString(base64.StdEncoding.EncodeToString(attachment) + "\r\n")
	builder.WriteString("--" + boundary + "--\r\n")
	return []byte(builder.String())
}

// ApplicationMailer adapts SMTP to the application service's mail port,
// delivering asynchronously. State transitions never wait on the relay.
type ApplicationMailer struct {
	SMTP    *SMTP
	Timeout time.Duration
	Logger  *slog.Logger
}

func (m ApplicationMailer) Send(_ context.Context, message applicationports.MailMessage) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout())
		defer cancel()
		if err := m.SMTP.Deliver(ctx, message.To, message.Subject, message.Body, message.Attachment, message.AttachmentName); err != nil {
			logger := m.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("async mail delivery failed",
				"event", "mail_delivery_failed",
				"module", "internal/platform/mailer",
				"layer", "platform",
				"subject", message.Subject,
				"error", err.Error(),
			)
		}
	}()
	return nil
}

func (m ApplicationMailer) timeout() time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return 15 * time.Second
}

// DocumentMailer adapts SMTP to the document service's mail port, also
// fire-and-forget; the OTP row is persisted before the code email leaves.
type DocumentMailer struct {
	SMTP    *SMTP
	Timeout time.Duration
	Logger  *slog.Logger
}

func (m DocumentMailer) Send(_ context.Context, message documentports.MailMessage) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout())
		defer cancel()
		if err := m.SMTP.Deliver(ctx, message.To, message.Subject, message.Body, nil, ""); err != nil {
			logger := m.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("async mail delivery failed",
				"event", "mail_delivery_failed",
				"module", "internal/platform/mailer",
				"layer", "platform",
				"subject", message.Subject,
				"error", err.Error(),
			)
		}
	}()
	return nil
}

func (m DocumentMailer) timeout() time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return 15 * time.Second
}
