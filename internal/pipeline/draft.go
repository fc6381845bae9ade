package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/resilience"
	"github.com/sells-group/leadflow-cli/pkg/anthropic"
)

// Drafter generates the follow-up email text for a classified lead.
type Drafter struct {
	llm     anthropic.Client
	prompts *Prompts
	params  ModelParams
	retry   resilience.RetryConfig
}

// NewDrafter builds a drafter using the standard retry schedule.
func NewDrafter(llm anthropic.Client, prompts *Prompts, params ModelParams) *Drafter {
	return &Drafter{
		llm:     llm,
		prompts: prompts,
		params:  params,
		retry:   modelRetryConfig("draft"),
	}
}

// Draft returns the generated email text, or an error once the retry budget
// is exhausted. Unlike classification there is no usable fallback content;
// the caller decides how to degrade.
func (d *Drafter) Draft(ctx context.Context, lead model.Lead, cls model.Classification) (string, error) {
	prompt, err := d.prompts.FollowUp(lead, cls)
	if err != nil {
		return "", err
	}

	text, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) (string, error) {
		return callModel(ctx, d.llm, d.params, prompt)
	})
	if err != nil {
		return "", eris.Wrapf(err, "draft: lead %s", lead.ID)
	}
	return text, nil
}
