package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFullResponse(t *testing.T) {
	body := []byte(`{
		"riskLevel": "HIGH",
		"riskInterpretation": "Humidity may affect yield.",
		"keyPoints": ["one", "two", "three"],
		"actions": ["check sensor", "notify lead"],
		"clarifyingQuestions": ["When?", "Where?"],
		"disclaimer": "Custom disclaimer."
	}`)

	resp, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, resp.RiskLevel)
	assert.Equal(t, "Humidity may affect yield.", resp.RiskInterpretation)
	assert.Equal(t, []string{"one", "two", "three"}, resp.KeyPoints)
	assert.Equal(t, []string{"check sensor", "notify lead"}, resp.Actions)
	assert.Equal(t, []string{"When?", "Where?"}, resp.ClarifyingQuestions)
	assert.Equal(t, "Custom disclaimer.", resp.Disclaimer)
	assert.True(t, resp.HasClarifyingQuestions())
}

func TestDecodeAppliesDefaults(t *testing.T) {
	resp, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, resp.RiskLevel)
	assert.Equal(t, DefaultInterpretation, resp.RiskInterpretation)
	assert.Equal(t, Disclaimer, resp.Disclaimer)
	assert.Empty(t, resp.KeyPoints)
	assert.Empty(t, resp.Actions)
	assert.False(t, resp.HasClarifyingQuestions())
}

func TestDecodeFalsyValuesFallBack(t *testing.T) {
	resp, err := Decode([]byte(`{"riskLevel": "", "riskInterpretation": null, "disclaimer": false, "keyPoints": "nope", "actions": 0, "clarifyingQuestions": {}}`))
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, resp.RiskLevel)
	assert.Equal(t, DefaultInterpretation, resp.RiskInterpretation)
	assert.Equal(t, Disclaimer, resp.Disclaimer)
	assert.Empty(t, resp.KeyPoints)
	assert.Empty(t, resp.Actions)
	assert.Empty(t, resp.ClarifyingQuestions)
}

func TestDecodeRiskLevelIsUppercased(t *testing.T) {
	resp, err := Decode([]byte(`{"riskLevel": "low"}`))
	require.NoError(t, err)
	assert.Equal(t, RiskLow, resp.RiskLevel)

	resp, err = Decode([]byte(`{"riskLevel": "SEVERE"}`))
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, resp.RiskLevel)
}

func TestDecodeKeepsListOrderAndStringifiesItems(t *testing.T) {
	resp, err := Decode([]byte(`{"keyPoints": ["z", 1, "a", true]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "1", "a", "true"}, resp.KeyPoints)
}

func TestDecodeNonObjectJSONUsesDefaults(t *testing.T) {
	resp, err := Decode([]byte(`["not", "an", "object"]`))
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, resp.RiskLevel)
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	for _, body := range []string{"", "   ", "<html>oops</html>", `{"riskLevel":`} {
		_, err := Decode([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidJSON, "body %q", body)
	}
}
