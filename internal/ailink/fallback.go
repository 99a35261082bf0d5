package ailink

import "github.com/astrasemi/qualitylens/internal/insight"

// Defaults for keys a model answer omits.
var (
	defaultKeyPoints = []string{
		"Review the observation details",
		"Consult with supervisor if needed",
	}
	defaultActions = []string{
		"Document the observation",
		"Follow standard procedures",
		"Report if necessary",
	}
)

// mockInsight is served when no provider is configured.
func mockInsight() *insight.Response {
	return &insight.Response{
		RiskLevel:          insight.RiskLow,
		RiskInterpretation: "The observation appears routine. Continue monitoring and follow standard procedures.",
		KeyPoints: []string{
			"Observation has been noted",
			"No immediate action required",
			"Continue standard monitoring",
		},
		Actions: []string{
			"Document the observation",
			"Continue normal operations",
			"Report any changes",
		},
		ClarifyingQuestions: []string{
			"Is this a recurring observation?",
			"Are there any patterns to note?",
		},
		Disclaimer: insight.Disclaimer,
	}
}

// fallbackInsight replaces a model answer that could not be parsed.
func fallbackInsight() *insight.Response {
	return &insight.Response{
		RiskLevel:          insight.RiskMedium,
		RiskInterpretation: "The observation has been noted and requires standard follow-up procedures.",
		KeyPoints: []string{
			"Document the observation clearly",
			"Follow standard operating procedures",
			"Report to supervisor if needed",
		},
		Actions: []string{
			"Review observation details",
			"Check standard procedures",
			"Consult with team if uncertain",
		},
		ClarifyingQuestions: []string{
			"When did this observation occur?",
			"Has this been observed before?",
		},
		Disclaimer: insight.Disclaimer,
	}
}

// degradedInsight replaces a failed provider call.
func degradedInsight() *insight.Response {
	return &insight.Response{
		RiskLevel:          insight.RiskMedium,
		RiskInterpretation: "Unable to process observation at this time. Please consult with your supervisor.",
		KeyPoints: []string{
			"Document the observation",
			"Follow standard procedures",
			"Report to supervisor",
		},
		Actions: []string{
			"Review standard operating procedures",
			"Consult with team members",
			"Escalate if needed",
		},
		ClarifyingQuestions: []string{},
		Disclaimer:          insight.Disclaimer,
	}
}
