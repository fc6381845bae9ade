package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/resilience"
	"github.com/sells-group/leadflow-cli/pkg/anthropic"
)

// ModelParams carries the per-call model settings from config.
type ModelParams struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Classifier assigns a Classification to each lead with one model round
// trip per attempt.
type Classifier struct {
	llm     anthropic.Client
	prompts *Prompts
	params  ModelParams
	retry   resilience.RetryConfig
}

// NewClassifier builds a classifier using the standard retry schedule.
func NewClassifier(llm anthropic.Client, prompts *Prompts, params ModelParams) *Classifier {
	return &Classifier{
		llm:     llm,
		prompts: prompts,
		params:  params,
		retry:   modelRetryConfig("classify"),
	}
}

// modelRetryConfig is the shared schedule for model calls: every failure
// kind (transport, empty response, parse) is retried identically, and the
// identical prompt is re-sent each attempt.
func modelRetryConfig(operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.ShouldRetry = resilience.RetryAll
	cfg.OnRetry = resilience.RetryLogger("anthropic", operation)
	return cfg
}

// Classify never fails: after the retry budget is exhausted it returns the
// fixed fallback classification so the batch can proceed to human review.
func (c *Classifier) Classify(ctx context.Context, lead model.Lead) model.Classification {
	prompt, err := c.prompts.Classification(lead)
	if err != nil {
		zap.L().Warn("classification prompt render failed, using fallback",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return model.FallbackClassification()
	}

	cls, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (model.Classification, error) {
		text, err := callModel(ctx, c.llm, c.params, prompt)
		if err != nil {
			return model.Classification{}, err
		}
		return ParseClassification(text)
	})
	if err != nil {
		zap.L().Warn("classification failed, using fallback",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return model.FallbackClassification()
	}

	zap.L().Info("lead classified",
		zap.String("lead_id", lead.ID),
		zap.String("category", string(cls.Category)),
		zap.String("urgency", string(cls.Urgency)),
	)
	return cls
}

// callModel performs one model round trip and returns the response text.
// An empty response is an error so the retry loop treats it like a
// transport failure.
func callModel(ctx context.Context, llm anthropic.Client, params ModelParams, prompt string) (string, error) {
	temp := params.Temperature
	resp, err := llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       params.Model,
		MaxTokens:   params.MaxTokens,
		System:      SystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}

	text := anthropic.ExtractText(resp)
	if text == "" {
		return "", eris.New("empty model response")
	}
	return text, nil
}
