// Package pipeline implements the lead qualification flow: classify each
// lead with a language model, draft a follow-up email, decide whether to
// send it, deliver it, and persist per-lead state.
package pipeline

import (
	"bytes"
	"os"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// SystemPrompt is sent on every model call.
const SystemPrompt = "You are a helpful sales assistant."

const defaultClassificationTemplate = `You are a sales assistant analyzing incoming leads.

Lead Information:
- Name: {{.Lead.Name}}
- Email: {{.Lead.Email}}
- Message: {{.Lead.Message}}
- Source: {{.Lead.Source}}

Analyze and classify this lead:

1. Category: Hot/Warm/Cold
   - Hot: Clear intent, budget indicators, urgent timeline
   - Warm: Interested but needs nurturing
   - Cold: Generic inquiry, low intent

2. Intent: What do they actually want?

3. Urgency: Immediate / This Week / This Month / Unknown

4. Key Concerns: Any objections or blockers mentioned?

5. Next Best Action: What should we do next?

Respond ONLY in this JSON format (no other text):
{
  "category": "Hot/Warm/Cold",
  "intent": "brief description",
  "urgency": "timeline",
  "concerns": ["list", "of", "concerns"],
  "next_action": "suggested action",
  "reasoning": "why you classified this way"
}`

const defaultFollowUpTemplate = `You are a professional sales assistant writing a follow-up email.

Lead Details:
- Name: {{.Lead.Name}}
- Their Message: {{.Lead.Message}}
- Classification: {{.Classification.Category}}
- Intent: {{.Classification.Intent}}
- Urgency: {{.Classification.Urgency}}

Write a personalized follow-up email that:
1. Addresses their specific inquiry directly
2. Builds credibility without overclaiming
3. Suggests a clear next step based on urgency
4. Professional but warm and human tone
5. Keep it concise: 3-4 short paragraphs

Format your response as:
Subject: [compelling subject line]

Dear {{.Lead.Name}},

[Email body - be specific to their message]

Best regards,
The Sales Team

Respond with ONLY the email (subject + body), no other text.`

// Prompts renders the model prompts for classification and drafting.
type Prompts struct {
	classification *template.Template
	followUp       *template.Template
}

// promptFile is the shape of the optional prompts.yaml override. Either
// field may be omitted to keep the default.
type promptFile struct {
	Classification string `yaml:"classification"`
	FollowUp       string `yaml:"follow_up"`
}

// promptData is the template context for both prompts.
type promptData struct {
	Lead           model.Lead
	Classification model.Classification
}

// DefaultPrompts returns the built-in prompt templates.
func DefaultPrompts() *Prompts {
	p, err := newPrompts(defaultClassificationTemplate, defaultFollowUpTemplate)
	if err != nil {
		// Defaults are compile-time constants; a parse failure is a bug.
		panic(err)
	}
	return p
}

// LoadPrompts returns prompts with any overrides found at path applied.
// A missing file is not an error; the defaults are used.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultPrompts(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: read %s", path)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, eris.Wrapf(err, "prompts: parse %s", path)
	}

	classification := defaultClassificationTemplate
	followUp := defaultFollowUpTemplate
	if pf.Classification != "" {
		classification = pf.Classification
	}
	if pf.FollowUp != "" {
		followUp = pf.FollowUp
	}

	p, err := newPrompts(classification, followUp)
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: %s", path)
	}
	return p, nil
}

func newPrompts(classification, followUp string) (*Prompts, error) {
	ct, err := template.New("classification").Parse(classification)
	if err != nil {
		return nil, eris.Wrap(err, "parse classification template")
	}
	ft, err := template.New("follow_up").Parse(followUp)
	if err != nil {
		return nil, eris.Wrap(err, "parse follow_up template")
	}
	return &Prompts{classification: ct, followUp: ft}, nil
}

// Classification renders the classification prompt for a lead.
func (p *Prompts) Classification(lead model.Lead) (string, error) {
	return render(p.classification, promptData{Lead: lead})
}

// FollowUp renders the follow-up email prompt.
func (p *Prompts) FollowUp(lead model.Lead, cls model.Classification) (string, error) {
	return render(p.followUp, promptData{Lead: lead, Classification: cls})
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "prompts: render %s", t.Name())
	}
	return buf.String(), nil
}
