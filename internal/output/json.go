package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSONFormatter emits the view with the same field names as the insight
// API, so saved output can be fed back to tools that read responses.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatView(view *View) (string, error) {
	if view == nil {
		return "", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(view); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
