package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const valueWidth = 72

// TableFormatter renders the page as a two-column table.
type TableFormatter struct {
	// Color tints the risk level cell by severity.
	Color bool
}

// FormatView renders view as a table.
func (f *TableFormatter) FormatView(view *View) (string, error) {
	if view == nil {
		return "", nil
	}

	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	t := table.NewWriter()
	t.SetStyle(style)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, WidthMax: valueWidth},
	})

	if view.Failed() {
		t.AppendRow(table.Row{"Error", view.Error})
		return t.Render(), nil
	}
	if view.RiskLevel == "" {
		return "", nil
	}

	t.AppendHeader(table.Row{"Quality Risk Insight", ""})
	t.AppendRow(table.Row{"Risk Level", f.riskCell(view.RiskLevel)})
	t.AppendRow(table.Row{"Interpretation", view.RiskInterpretation})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Key Points", bulletList(view.KeyPoints)})
	t.AppendRow(table.Row{"Actions", numberedList(view.Actions)})
	if len(view.ClarifyingQuestions) > 0 {
		t.AppendRow(table.Row{"Questions", bulletList(view.ClarifyingQuestions)})
	}
	t.AppendFooter(table.Row{"", view.Disclaimer})

	return t.Render(), nil
}

func (f *TableFormatter) riskCell(level string) string {
	if !f.Color {
		return level
	}
	switch level {
	case "HIGH":
		return text.Colors{text.FgHiRed, text.Bold}.Sprint(level)
	case "LOW":
		return text.Colors{text.FgGreen, text.Bold}.Sprint(level)
	default:
		return text.Colors{text.FgYellow, text.Bold}.Sprint(level)
	}
}

func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}

func numberedList(items []string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}
