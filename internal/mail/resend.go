package mail

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/resilience"
	"github.com/sells-group/leadflow-cli/pkg/resend"
)

// defaultResendFrom is Resend's sandbox identity, usable without a
// verified domain.
const defaultResendFrom = "onboarding@resend.dev"

// ResendSender delivers mail through the Resend HTTP API.
type ResendSender struct {
	client resend.Client
	from   string
}

// NewResendSender creates a sender with the given API key. An empty from
// falls back to the Resend sandbox identity.
func NewResendSender(apiKey, from string, opts ...resend.Option) *ResendSender {
	if from == "" {
		from = defaultResendFrom
	}
	return &ResendSender{
		client: resend.NewClient(apiKey, opts...),
		from:   from,
	}
}

func (s *ResendSender) Send(ctx context.Context, email Email) error {
	resp, err := s.client.SendEmail(ctx, resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Text:    email.Body,
	})
	if err != nil {
		// Mark rate limits and server errors transient so callers that do
		// retry (none in the pipeline today) can tell them apart.
		var apiErr *resend.APIError
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return eris.Wrap(err, "mail: resend send")
	}

	zap.L().Info("email sent",
		zap.String("to", email.To),
		zap.String("resend_id", resp.ID),
	)
	return nil
}
