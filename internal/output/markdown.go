package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders the view as a markdown document.
type MarkdownFormatter struct{}

// FormatView renders view as Markdown.
func (f *MarkdownFormatter) FormatView(view *View) (string, error) {
	if view == nil {
		return "", nil
	}

	var sb strings.Builder
	if view.Failed() {
		sb.WriteString(fmt.Sprintf("> **Error:** %s\n", escapeMarkdown(view.Error)))
		return sb.String(), nil
	}
	if view.RiskLevel == "" {
		return "", nil
	}

	sb.WriteString("## Quality Risk Insight\n\n")
	sb.WriteString(fmt.Sprintf("**Risk level:** `%s`\n\n", view.RiskLevel))
	sb.WriteString(escapeMarkdown(view.RiskInterpretation) + "\n")

	writeSection(&sb, "Key points", view.KeyPoints, false)
	writeSection(&sb, "Recommended actions", view.Actions, true)
	if len(view.ClarifyingQuestions) > 0 {
		writeSection(&sb, "Clarifying questions", view.ClarifyingQuestions, false)
	}

	sb.WriteString(fmt.Sprintf("\n_%s_\n", escapeMarkdown(view.Disclaimer)))
	return sb.String(), nil
}

func writeSection(sb *strings.Builder, title string, items []string, numbered bool) {
	sb.WriteString(fmt.Sprintf("\n### %s\n\n", title))
	for i, item := range items {
		if numbered {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, escapeMarkdown(item)))
			continue
		}
		sb.WriteString("- " + escapeMarkdown(item) + "\n")
	}
}

func escapeMarkdown(value string) string {
	replacer := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`")
	return replacer.Replace(value)
}
