package insight

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidJSON is returned by Decode when the body is not JSON at all.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// Decode parses a success body. Every field is optional: falsy values
// (absent, null, "", false, 0) fall back to the fixed defaults and list fields
// that are not arrays decode as empty lists. Valid JSON that is not an object
// yields an all-default response.
func Decode(body []byte) (*Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		return nil, ErrInvalidJSON
	}

	fields := map[string]json.RawMessage{}
	if body[0] == '{' {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, ErrInvalidJSON
		}
	}

	resp := &Response{
		RiskLevel:           RiskMedium,
		RiskInterpretation:  DefaultInterpretation,
		KeyPoints:           listField(fields["keyPoints"]),
		Actions:             listField(fields["actions"]),
		ClarifyingQuestions: listField(fields["clarifyingQuestions"]),
		Disclaimer:          Disclaimer,
	}
	if text, ok := truthyText(fields["riskLevel"]); ok {
		resp.RiskLevel = ParseRiskLevel(text)
	}
	if text, ok := truthyText(fields["riskInterpretation"]); ok {
		resp.RiskInterpretation = text
	}
	if text, ok := truthyText(fields["disclaimer"]); ok {
		resp.Disclaimer = text
	}
	return resp, nil
}

// truthyText returns the display text of a scalar and whether it is truthy.
func truthyText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case 'n', 'f':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case '{', '[':
		return string(raw), true
	case 't':
		return "true", true
	default:
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || n == 0 {
			return "", false
		}
		return string(raw), true
	}
}

func listField(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []string{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, itemText(item))
	}
	return result
}

func itemText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
