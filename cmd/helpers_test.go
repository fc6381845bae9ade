//go:build !integration

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow-cli/internal/config"
	"github.com/sells-group/leadflow-cli/internal/mail"
	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/pipeline"
	"github.com/sells-group/leadflow-cli/internal/state"
	"github.com/sells-group/leadflow-cli/pkg/anthropic"
)

// scriptedModel returns canned responses in order, repeating the last one
// once the script runs out.
type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	i := m.calls
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.calls++
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.responses[i]}},
	}, nil
}

// captureSender records outbound emails instead of delivering them.
type captureSender struct {
	sent []mail.Email
}

func (s *captureSender) Send(_ context.Context, e mail.Email) error {
	s.sent = append(s.sent, e)
	return nil
}

const hotClassification = `{"category":"Hot","intent":"wants a demo","urgency":"Immediate","concerns":["pricing"],"next_action":"schedule call","reasoning":"clear buying signal"}`

// hotModelScript yields a classify response and a draft response for each
// of n leads, in the order the pipeline issues them.
func hotModelScript(n int) *scriptedModel {
	var responses []string
	for i := 0; i < n; i++ {
		responses = append(responses,
			hotClassification,
			"Subject: Following up\n\nThanks for reaching out.",
		)
	}
	return &scriptedModel{responses: responses}
}

// writeLeadsCSV writes a canonical leads file with n generated rows and
// returns its path.
func writeLeadsCSV(t *testing.T, dir string, n int) string {
	t.Helper()

	lines := []string{"lead_id,name,email,message,source"}
	for i := 1; i <= n; i++ {
		lines = append(lines, fmt.Sprintf(
			"L%d,Lead %d,lead%d@example.com,Interested in a demo,web", i, i, i,
		))
	}

	path := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

// newTestEnv builds a pipelineEnv over a temp CSV store with the unattended
// gate, and points cfg at a leads file with leadCount rows.
func newTestEnv(t *testing.T, llm anthropic.Client, sender mail.Sender, sendLimit, leadCount int) *pipelineEnv {
	t.Helper()
	dir := t.TempDir()

	cfg = &config.Config{
		Anthropic: config.AnthropicConfig{Key: "test-key"},
		Paths: config.PathsConfig{
			Leads:  writeLeadsCSV(t, dir, leadCount),
			State:  filepath.Join(dir, "state.csv"),
			Drafts: filepath.Join(dir, "drafts"),
		},
		Pipeline: config.PipelineConfig{AutoSend: true, Threshold: "Hot", BatchSize: sendLimit},
	}

	st := state.NewCSV(cfg.Paths.State)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	prompts, err := pipeline.LoadPrompts(filepath.Join(dir, "prompts.yaml"))
	require.NoError(t, err)
	params := pipeline.ModelParams{Model: "test-model", MaxTokens: 512}

	p := &pipeline.Pipeline{
		Classifier: pipeline.NewClassifier(llm, prompts, params),
		Drafter:    pipeline.NewDrafter(llm, prompts, params),
		Decisions:  &pipeline.GateDecision{AutoSend: true, Threshold: model.CategoryHot},
		Drafts:     &pipeline.DraftWriter{Dir: cfg.Paths.Drafts},
		Store:      st,
		SendLimit:  sendLimit,
	}
	if sender != nil {
		p.Sender = sender
	}

	return &pipelineEnv{Store: st, Pipeline: p}
}
