package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/config"
)

// SMTPSender delivers mail over SMTP with STARTTLS and password auth,
// one plaintext message per send.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTPSender creates a sender from the email config. The sender
// identity doubles as the SMTP username (app-password style accounts).
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Sender,
		password: cfg.Password,
	}
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return eris.Wrapf(err, "smtp: dial %s", addr)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return eris.Wrap(err, "smtp: handshake")
	}
	defer c.Close()

	if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
		return eris.Wrap(err, "smtp: starttls")
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := c.Auth(auth); err != nil {
		return eris.Wrap(err, "smtp: auth")
	}

	if err := c.Mail(s.username); err != nil {
		return eris.Wrap(err, "smtp: mail from")
	}
	if err := c.Rcpt(email.To); err != nil {
		return eris.Wrapf(err, "smtp: rcpt %s", email.To)
	}

	w, err := c.Data()
	if err != nil {
		return eris.Wrap(err, "smtp: data")
	}
	if _, err := w.Write([]byte(buildMessage(s.username, email))); err != nil {
		return eris.Wrap(err, "smtp: write message")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "smtp: close message")
	}

	return eris.Wrap(c.Quit(), "smtp: quit")
}

// buildMessage renders one RFC 5322 plaintext message. Bare newlines in
// the body are normalized to CRLF.
func buildMessage(from string, email Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(email.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}
