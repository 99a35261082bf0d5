package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/astrasemi/qualitylens/internal/insight"
)

// Styles groups the lipgloss styles used by the form.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Button   lipgloss.Style
	Busy     lipgloss.Style
	Panel    lipgloss.Style
	Error    lipgloss.Style
	Section  lipgloss.Style
	Help     lipgloss.Style
	badgeLow lipgloss.Style
	badgeMed lipgloss.Style
	badgeHi  lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Label:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Button:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")),
		Busy:     lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Foreground(lipgloss.Color("245")),
		Panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Section:  lipgloss.NewStyle().Bold(true).Underline(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		badgeLow: badge.Background(lipgloss.Color("28")).Foreground(lipgloss.Color("15")),
		badgeMed: badge.Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0")),
		badgeHi:  badge.Background(lipgloss.Color("160")).Foreground(lipgloss.Color("15")),
	}
}

// Badge returns the badge style for a risk style class.
func (s Styles) Badge(class string) lipgloss.Style {
	switch class {
	case insight.RiskLow.Class():
		return s.badgeLow
	case insight.RiskHigh.Class():
		return s.badgeHi
	default:
		return s.badgeMed
	}
}
