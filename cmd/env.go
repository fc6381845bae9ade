package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/mail"
	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/pipeline"
	"github.com/sells-group/leadflow-cli/internal/state"
	"github.com/sells-group/leadflow-cli/pkg/anthropic"
)

// pipelineEnv holds the initialized store, transport, and pipeline shared
// by the run/review/schedule/serve commands.
type pipelineEnv struct {
	Store    state.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initEnv sets up the state store, model client, email transport, and the
// pipeline. A nil decisions source selects the unattended dispatch gate.
// Callers should defer env.Close().
func initEnv(ctx context.Context, decisions pipeline.DecisionSource) (*pipelineEnv, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	prompts, err := pipeline.LoadPrompts(cfg.Paths.Prompts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	llm := anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithRateLimit(cfg.Anthropic.RPS))
	params := pipeline.ModelParams{
		Model:       cfg.Anthropic.Model,
		Temperature: cfg.Anthropic.Temperature,
		MaxTokens:   cfg.Anthropic.MaxTokens,
	}

	sender, transport := mail.NewSender(cfg.Email)
	if transport == "none" {
		zap.L().Warn("email not configured, drafts will be saved but nothing sent")
	} else {
		zap.L().Info("email transport selected", zap.String("transport", transport))
	}

	if decisions == nil {
		decisions = &pipeline.GateDecision{
			AutoSend:  cfg.Pipeline.AutoSend,
			Threshold: approveThreshold(),
		}
	}

	p := &pipeline.Pipeline{
		Classifier: pipeline.NewClassifier(llm, prompts, params),
		Drafter:    pipeline.NewDrafter(llm, prompts, params),
		Decisions:  decisions,
		Drafts:     &pipeline.DraftWriter{Dir: cfg.Paths.Drafts},
		Sender:     sender,
		Store:      st,
		SendLimit:  cfg.Pipeline.BatchSize,
	}

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

// initStore builds the state store selected by store.driver.
func initStore(ctx context.Context) (state.Store, error) {
	switch cfg.Store.Driver {
	case "", "csv":
		return state.NewCSV(cfg.Paths.State), nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "data/state.db"
		}
		return state.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires store.database_url")
		}
		return state.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}

// approveThreshold parses the configured auto-approve threshold, falling
// back to Hot (the most conservative gate) on junk input.
func approveThreshold() model.Category {
	if c, ok := model.ParseCategory(cfg.Pipeline.Threshold); ok {
		return c
	}
	zap.L().Warn("invalid auto-approve threshold, defaulting to Hot",
		zap.String("threshold", cfg.Pipeline.Threshold),
	)
	return model.CategoryHot
}
