package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// rawClassification mirrors the JSON shape the model is asked to emit.
type rawClassification struct {
	Category   string   `json:"category"`
	Intent     string   `json:"intent"`
	Urgency    string   `json:"urgency"`
	Concerns   []string `json:"concerns"`
	NextAction string   `json:"next_action"`
	Reasoning  string   `json:"reasoning"`
}

// ParseClassification extracts and validates the classification JSON from a
// model response. The response may carry prose around the object; the
// substring from the first '{' to the last '}' is parsed. An unknown
// category is a parse failure (the retry loop treats it like any other
// error); an unknown urgency degrades to Unknown.
func ParseClassification(text string) (model.Classification, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return model.Classification{}, eris.New("classify: no JSON object in response")
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return model.Classification{}, eris.Wrap(err, "classify: parse response")
	}

	category, ok := model.ParseCategory(raw.Category)
	if !ok {
		return model.Classification{}, eris.Errorf("classify: unknown category %q", raw.Category)
	}

	concerns := raw.Concerns
	if concerns == nil {
		concerns = []string{}
	}

	return model.Classification{
		Category:   category,
		Intent:     raw.Intent,
		Urgency:    model.ParseUrgency(raw.Urgency),
		Concerns:   concerns,
		NextAction: raw.NextAction,
		Reasoning:  raw.Reasoning,
	}, nil
}
