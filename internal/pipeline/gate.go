package pipeline

import "github.com/sells-group/leadflow-cli/internal/model"

// ShouldSend is the dispatch gate: it decides whether an approved draft is
// emailed without human review. The threshold is a minimum category rank
// (Hot > Warm > Cold); when auto-send is disabled the gate is always
// closed, whatever the classification says.
func ShouldSend(category, threshold model.Category, autoSendEnabled bool) bool {
	if !autoSendEnabled {
		return false
	}
	return category.AtLeast(threshold)
}
