package output

import (
	"fmt"
	"strings"

	"github.com/astrasemi/qualitylens/internal/form"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders the visible state of an insight page.
type Formatter interface {
	FormatView(view *View) (string, error)
}

// View is what a rendered page currently shows. Error is set only when the
// error panel is visible; the insight fields only when the result panel is.
type View struct {
	Error               string   `json:"error,omitempty"`
	RiskLevel           string   `json:"riskLevel,omitempty"`
	RiskClass           string   `json:"-"`
	RiskInterpretation  string   `json:"riskInterpretation,omitempty"`
	KeyPoints           []string `json:"keyPoints,omitempty"`
	Actions             []string `json:"actions,omitempty"`
	ClarifyingQuestions []string `json:"clarifyingQuestions,omitempty"`
	Disclaimer          string   `json:"disclaimer,omitempty"`
}

// Failed reports whether the view shows the error panel.
func (v *View) Failed() bool {
	return v != nil && v.Error != ""
}

// ViewFromPage reads the visible surfaces of page.
func ViewFromPage(page *form.Page) *View {
	view := &View{}
	if page == nil {
		return view
	}

	if page.ErrorPanel.Visible() {
		view.Error = page.ErrorMessage.Text()
		return view
	}
	if !page.ResultPanel.Visible() {
		return view
	}

	view.RiskLevel = page.RiskBadge.Text()
	view.RiskClass = page.RiskBadge.Class()
	view.RiskInterpretation = page.RiskInterpretation.Text()
	view.KeyPoints = page.KeyPoints.Items()
	view.Actions = page.Actions.Items()
	if page.QuestionsSection.Visible() {
		view.ClarifyingQuestions = page.Questions.Items()
	}
	view.Disclaimer = page.Disclaimer.Text()
	return view
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}
