// Package mail delivers drafted follow-up emails over exactly one
// configured transport (SMTP or the Resend API) and parses generated
// drafts into subject and body.
package mail

import (
	"context"

	"github.com/sells-group/leadflow-cli/internal/config"
)

// Email is one outbound plaintext message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one email. Send failures are surfaced, never retried;
// the pipeline degrades a failed send to a saved draft.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// NewSender builds the transport selected by the email config. Returns
// (nil, "none") when no transport is configured: drafts are still
// produced and saved, nothing is delivered.
func NewSender(cfg config.EmailConfig) (Sender, string) {
	switch cfg.ResolveTransport() {
	case "resend":
		return NewResendSender(cfg.ResendKey, cfg.Sender), "resend"
	case "smtp":
		return NewSMTPSender(cfg), "smtp"
	default:
		return nil, "none"
	}
}
