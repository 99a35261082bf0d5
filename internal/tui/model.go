// Package tui hosts the insight form in a terminal UI. The form.Page stays
// the source of truth: widgets feed it and the view reads it back.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/astrasemi/qualitylens/internal/form"
	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/output"
)

// insightMsg carries the outcome of one fetch back to the event loop.
type insightMsg struct {
	resp *insight.Response
	err  error
}

// Options configures a Model.
type Options struct {
	// Context preselects the context field.
	Context string
	Styles  *Styles
}

// Model is the bubbletea model for the insight form.
type Model struct {
	controller *form.Controller
	page       *form.Page
	scroller   *form.MemoryScroller
	fetcher    form.Fetcher

	textarea textarea.Model
	spinner  spinner.Model
	viewport viewport.Model
	styles   Styles

	contextIdx   int
	exampleIdx   int
	scrollsShown int
	width        int
}

// NewModel builds a form model that submits through fetcher.
func NewModel(fetcher form.Fetcher, opts Options) Model {
	page := form.NewMemoryPage()
	scroller := page.Scroller.(*form.MemoryScroller)

	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}

	ta := textarea.New()
	ta.Placeholder = "Describe what you observed..."
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(5)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		controller: form.NewController(page, fetcher),
		page:       page,
		scroller:   scroller,
		fetcher:    fetcher,
		textarea:   ta,
		spinner:    sp,
		viewport:   viewport.New(80, 14),
		styles:     styles,
		exampleIdx: -1,
		width:      80,
	}

	m.contextIdx = contextIndex(opts.Context)
	if m.contextIdx >= 0 {
		page.Context.SetValue(insight.Contexts[m.contextIdx])
	} else {
		page.Context.SetValue(opts.Context)
	}
	m.controller.ReflectCount()
	return m
}

// Page exposes the render context.
func (m Model) Page() *form.Page { return m.page }

// Controller exposes the form controller.
func (m Model) Controller() *form.Controller { return m.controller }

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case insightMsg:
		m.controller.Finish(msg.resp, msg.err)
		m.refreshResults()
		return m, nil

	case spinner.TickMsg:
		if m.page.Loading.Visible() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+s":
			return m.submit()
		case "tab":
			m.cycleContext()
			return m, nil
		case "ctrl+e":
			m.nextExample()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if m.textarea.Value() != m.page.Observation.Value() {
		m.controller.Edit(m.textarea.Value())
	}
	return m, cmd
}

// submit validates and, when the form is accepted, starts the fetch off the
// event loop. Validation failures are already rendered by Prepare.
func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.controller.Prepare()
	if err != nil {
		m.refreshResults()
		return m, nil
	}
	m.refreshResults()
	return m, tea.Batch(m.spinner.Tick, fetchCmd(m.fetcher, req))
}

func fetchCmd(fetcher form.Fetcher, req insight.Request) tea.Cmd {
	return func() tea.Msg {
		if fetcher == nil {
			return insightMsg{err: fmt.Errorf("insight client not configured")}
		}
		resp, err := fetcher.Fetch(context.Background(), req)
		return insightMsg{resp: resp, err: err}
	}
}

func (m *Model) cycleContext() {
	m.contextIdx = (m.contextIdx + 1) % len(insight.Contexts)
	m.page.Context.SetValue(insight.Contexts[m.contextIdx])
}

func (m *Model) nextExample() {
	labels := insight.ExampleLabels()
	if len(labels) == 0 {
		return
	}
	m.exampleIdx = (m.exampleIdx + 1) % len(labels)
	m.controller.Autofill(labels[m.exampleIdx])
	m.textarea.SetValue(m.page.Observation.Value())
	m.textarea.Focus()
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.textarea.SetWidth(max(20, width-4))
	m.viewport.Width = max(20, width-2)
	m.viewport.Height = max(4, height-16)
	m.refreshResults()
}

// refreshResults rebuilds the viewport from the page and jumps to the top of
// whichever panel the cycle revealed since the last refresh.
func (m *Model) refreshResults() {
	m.viewport.SetContent(m.renderPanels())
	if m.scroller.Count != m.scrollsShown {
		m.scrollsShown = m.scroller.Count
		m.viewport.GotoTop()
	}
}

func (m Model) renderPanels() string {
	view := output.ViewFromPage(m.page)
	if view.Failed() {
		return m.styles.Error.Render("Error: ") + view.Error
	}
	if view.RiskLevel == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Label.Render("Risk level "))
	sb.WriteString(m.styles.Badge(view.RiskClass).Render(view.RiskLevel))
	sb.WriteString("\n\n")
	sb.WriteString(view.RiskInterpretation)
	sb.WriteString("\n")

	writeList(&sb, m.styles.Section.Render("Key points"), view.KeyPoints, false)
	writeList(&sb, m.styles.Section.Render("Recommended actions"), view.Actions, true)
	if len(view.ClarifyingQuestions) > 0 {
		writeList(&sb, m.styles.Section.Render("Clarifying questions"), view.ClarifyingQuestions, false)
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render(view.Disclaimer))
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string, numbered bool) {
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	for i, item := range items {
		if numbered {
			fmt.Fprintf(sb, "  %d. %s\n", i+1, item)
			continue
		}
		sb.WriteString("  • " + item + "\n")
	}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("Quality Risk Insight"))
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.Label.Render("Observation"))
	sb.WriteString("\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("%s / %d characters", m.page.CharCount.Text(), insight.MaxObservationLength)))
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.Label.Render("Context "))
	sb.WriteString(m.page.Context.Value())
	sb.WriteString("\n\n")

	button := m.page.Submit.(*form.MemoryButton)
	if button.Enabled() {
		sb.WriteString(m.styles.Button.Render(button.Label()))
	} else {
		sb.WriteString(m.styles.Busy.Render(m.spinner.View() + " " + button.Label()))
	}
	sb.WriteString("\n")

	if panels := m.viewport.View(); strings.TrimSpace(panels) != "" {
		sb.WriteString("\n")
		sb.WriteString(panels)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("ctrl+s submit • tab context • ctrl+e example • pgup/pgdown scroll • esc quit"))
	return sb.String()
}

func contextIndex(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	for i, c := range insight.Contexts {
		if strings.EqualFold(c, value) {
			return i
		}
	}
	return -1
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, fetcher form.Fetcher, opts Options) error {
	program := tea.NewProgram(NewModel(fetcher, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
