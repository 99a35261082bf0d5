package insight

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		length int
		reason string
	}{
		{"empty", 0, ReasonTooShort},
		{"one below minimum", MinObservationLength - 1, ReasonTooShort},
		{"minimum", MinObservationLength, ""},
		{"middle", 500, ""},
		{"maximum", MaxObservationLength, ""},
		{"one above maximum", MaxObservationLength + 1, ReasonTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.length)
			trimmed, err := Validate(text)
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, text, trimmed)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Equal(t, tt.length, verr.Length)
			assert.Contains(t, verr.Error(), tt.reason)
		})
	}
}

func TestValidateTrimsBeforeCounting(t *testing.T) {
	padded := "   " + strings.Repeat("b", MinObservationLength-1) + "\n\t "
	_, err := Validate(padded)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ReasonTooShort, verr.Reason)

	padded = "  " + strings.Repeat("b", MinObservationLength) + "  "
	trimmed, err := Validate(padded)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", MinObservationLength), trimmed)
}

func TestValidateCountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("µ", MinObservationLength)
	_, err := Validate(text)
	require.NoError(t, err)
	assert.Equal(t, MinObservationLength, Length(text))
}

func TestParseRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, ParseRiskLevel("high"))
	assert.Equal(t, RiskLow, ParseRiskLevel(" Low "))
	assert.Equal(t, RiskMedium, ParseRiskLevel(""))
	assert.Equal(t, RiskMedium, ParseRiskLevel("critical"))
	assert.Equal(t, "risk-high", RiskHigh.Class())
}

func TestExample(t *testing.T) {
	assert.Equal(t, examples["humidity"], Example("humidity"))
	assert.Equal(t, examples["humidity"], Example("  Humidity "))
	assert.Equal(t, "my own text", Example("my own text"))
	assert.Equal(t, []string{"equipment", "handling", "humidity", "particles"}, ExampleLabels())

	for _, label := range ExampleLabels() {
		_, err := Validate(Example(label))
		assert.NoError(t, err, "example %q should pass validation", label)
	}
}
