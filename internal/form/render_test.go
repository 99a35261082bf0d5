package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astrasemi/qualitylens/internal/insight"
)

func TestRenderQuestionsSectionVisibility(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		visible bool
		items   []string
	}{
		{"absent", `{}`, false, []string{}},
		{"empty", `{"clarifyingQuestions": []}`, false, []string{}},
		{"non-array", `{"clarifyingQuestions": "why?"}`, false, []string{}},
		{"present", `{"clarifyingQuestions": ["first?", "second?"]}`, true, []string{"first?", "second?"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewMemoryPage()
			page.QuestionsSection.Show()

			resp, err := insight.Decode([]byte(tt.body))
			assert.NoError(t, err)
			Render(page, resp)

			assert.Equal(t, tt.visible, page.QuestionsSection.Visible())
			assert.Equal(t, tt.items, page.Questions.Items())
		})
	}
}

func TestRenderMissingRiskLevelShowsMedium(t *testing.T) {
	page := NewMemoryPage()
	resp, err := insight.Decode([]byte(`{"riskInterpretation": "ok"}`))
	assert.NoError(t, err)

	Render(page, resp)
	assert.Equal(t, "MEDIUM", page.RiskBadge.Text())
	assert.Equal(t, "risk-medium", page.RiskBadge.Class())
	assert.Equal(t, insight.Disclaimer, page.Disclaimer.Text())
}

func TestRenderNilResponseUsesDefaults(t *testing.T) {
	page := NewMemoryPage()
	Render(page, nil)

	assert.Equal(t, "MEDIUM", page.RiskBadge.Text())
	assert.Equal(t, insight.DefaultInterpretation, page.RiskInterpretation.Text())
	assert.Equal(t, insight.Disclaimer, page.Disclaimer.Text())
	assert.False(t, page.QuestionsSection.Visible())
}

func TestRenderErrorHidesResult(t *testing.T) {
	page := NewMemoryPage()
	page.ResultPanel.Show()

	RenderError(page, "boom")
	assert.False(t, page.ResultPanel.Visible())
	assert.True(t, page.ErrorPanel.Visible())
	assert.Equal(t, "boom", page.ErrorMessage.Text())
}
