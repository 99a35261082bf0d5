package form

import "github.com/astrasemi/qualitylens/internal/insight"

// Render projects resp onto the result surfaces. Lists are replaced, never
// appended to, so a previous result leaves no residue.
func Render(page *Page, resp *insight.Response) {
	if resp == nil {
		resp = &insight.Response{}
	}

	level := resp.RiskLevel
	if level == "" {
		level = insight.RiskMedium
	}
	page.RiskBadge.SetText(string(level))
	page.RiskBadge.SetClass(level.Class())

	interpretation := resp.RiskInterpretation
	if interpretation == "" {
		interpretation = insight.DefaultInterpretation
	}
	page.RiskInterpretation.SetText(interpretation)

	page.KeyPoints.SetItems(resp.KeyPoints)
	page.Actions.SetItems(resp.Actions)

	page.Questions.SetItems(resp.ClarifyingQuestions)
	if resp.HasClarifyingQuestions() {
		page.QuestionsSection.Show()
	} else {
		page.QuestionsSection.Hide()
	}

	disclaimer := resp.Disclaimer
	if disclaimer == "" {
		disclaimer = insight.Disclaimer
	}
	page.Disclaimer.SetText(disclaimer)
}

// RenderError shows message in the error panel and hides any result.
func RenderError(page *Page, message string) {
	page.ResultPanel.Hide()
	page.ErrorMessage.SetText(message)
	page.ErrorPanel.Show()
	page.scrollTo(page.ErrorPanel)
}
