package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/leadflow-cli/internal/mail"
	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/anthropic"
)

// fakeLLM returns canned responses in order, then repeats the last one.
// An empty string entry simulates a failed call.
type fakeLLM struct {
	responses []string
	calls     int
}

func (f *fakeLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	if idx < 0 || f.responses[idx] == "" {
		return nil, errors.New("model unavailable")
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.responses[idx]}},
	}, nil
}

const validClassificationJSON = `{
  "category": "Hot",
  "intent": "wants a demo",
  "urgency": "Immediate",
  "concerns": ["pricing"],
  "next_action": "schedule call",
  "reasoning": "explicit ask"
}`

// memStore is an in-memory Store for driver tests.
type memStore struct {
	rows     map[string]model.LeadState
	order    []string
	failures []model.FailureRecord

	loadErr   error
	upsertErr error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]model.LeadState)}
}

func (m *memStore) Load(ctx context.Context) ([]model.LeadState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]model.LeadState, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memStore) Upsert(ctx context.Context, leadID string, status model.LeadStatus, nextAction string) (model.LeadState, error) {
	if m.upsertErr != nil {
		return model.LeadState{}, m.upsertErr
	}
	st, ok := m.rows[leadID]
	if ok {
		st.FollowUpCount++
	} else {
		st = model.LeadState{LeadID: leadID, FollowUpCount: 1}
		m.order = append(m.order, leadID)
	}
	st.Status = status
	st.NextAction = nextAction
	st.LastContact = time.Now().UTC()
	m.rows[leadID] = st
	return st, nil
}

func (m *memStore) RecordFailure(ctx context.Context, leadID string, procErr error) error {
	m.failures = append(m.failures, model.FailureRecord{
		LeadID:    leadID,
		Error:     procErr.Error(),
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *memStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	return m.failures, nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

// fakeSender records sends and optionally fails specific recipients.
type fakeSender struct {
	sent    []mail.Email
	failFor map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, email mail.Email) error {
	if f.failFor[email.To] {
		return errors.New("send refused")
	}
	f.sent = append(f.sent, email)
	return nil
}

func testLead(id, name string) model.Lead {
	return model.Lead{
		ID:      id,
		Name:    name,
		Email:   name + "@example.com",
		Message: "Interested in your product",
		Source:  "website",
	}
}
