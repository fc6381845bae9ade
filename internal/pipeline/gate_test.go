package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadflow-cli/internal/model"
)

func TestShouldSend_TruthTable(t *testing.T) {
	cases := []struct {
		category  model.Category
		threshold model.Category
		want      bool
	}{
		{model.CategoryHot, model.CategoryHot, true},
		{model.CategoryWarm, model.CategoryHot, false},
		{model.CategoryCold, model.CategoryHot, false},
		{model.CategoryHot, model.CategoryWarm, true},
		{model.CategoryWarm, model.CategoryWarm, true},
		{model.CategoryCold, model.CategoryWarm, false},
		{model.CategoryHot, model.CategoryCold, true},
		{model.CategoryWarm, model.CategoryCold, true},
		{model.CategoryCold, model.CategoryCold, true},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_vs_%s", tc.category, tc.threshold), func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldSend(tc.category, tc.threshold, true))
		})
	}
}

func TestShouldSend_DisabledOverridesEverything(t *testing.T) {
	for _, category := range model.AllCategories() {
		for _, threshold := range model.AllCategories() {
			assert.False(t, ShouldSend(category, threshold, false),
				"category=%s threshold=%s", category, threshold)
		}
	}
}
