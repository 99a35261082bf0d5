package form

// MemoryText is an in-memory Text.
type MemoryText struct{ value string }

func (t *MemoryText) SetText(text string) { t.value = text }
func (t *MemoryText) Text() string        { return t.value }

// MemoryList is an in-memory List.
type MemoryList struct{ items []string }

func (l *MemoryList) SetItems(items []string) {
	l.items = append([]string{}, items...)
}

func (l *MemoryList) Items() []string { return l.items }

// MemoryPanel is an in-memory Panel. Panels start hidden.
type MemoryPanel struct {
	Name    string
	visible bool
}

func (p *MemoryPanel) Show()         { p.visible = true }
func (p *MemoryPanel) Hide()         { p.visible = false }
func (p *MemoryPanel) Visible() bool { return p.visible }

// MemoryBadge is an in-memory Badge.
type MemoryBadge struct {
	MemoryText
	class string
}

func (b *MemoryBadge) SetClass(class string) { b.class = class }
func (b *MemoryBadge) Class() string         { return b.class }

// MemoryButton is an in-memory Button.
type MemoryButton struct {
	label   string
	enabled bool
}

// NewMemoryButton returns an enabled button.
func NewMemoryButton(label string) *MemoryButton {
	return &MemoryButton{label: label, enabled: true}
}

func (b *MemoryButton) SetEnabled(enabled bool) { b.enabled = enabled }
func (b *MemoryButton) Enabled() bool           { return b.enabled }
func (b *MemoryButton) SetLabel(label string)   { b.label = label }
func (b *MemoryButton) Label() string           { return b.label }

// MemoryField is an in-memory Field.
type MemoryField struct {
	value   string
	focused bool
}

func (f *MemoryField) Value() string         { return f.value }
func (f *MemoryField) SetValue(value string) { f.value = value }
func (f *MemoryField) Focus()                { f.focused = true }
func (f *MemoryField) Focused() bool         { return f.focused }

// MemoryScroller records the last scroll request.
type MemoryScroller struct {
	Target   Panel
	Behavior ScrollBehavior
	Count    int
}

func (s *MemoryScroller) ScrollIntoView(target Panel, behavior ScrollBehavior) {
	s.Target = target
	s.Behavior = behavior
	s.Count++
}

// SubmitLabel is the idle label of the submit button.
const SubmitLabel = "Get Insight"

// NewMemoryPage builds a Page backed entirely by in-memory surfaces.
func NewMemoryPage() *Page {
	return &Page{
		Observation:        &MemoryField{},
		Context:            &MemoryField{},
		CharCount:          &MemoryText{value: "0"},
		Submit:             NewMemoryButton(SubmitLabel),
		Loading:            &MemoryPanel{Name: "loading"},
		ErrorPanel:         &MemoryPanel{Name: "error"},
		ErrorMessage:       &MemoryText{},
		ResultPanel:        &MemoryPanel{Name: "result"},
		RiskBadge:          &MemoryBadge{},
		RiskInterpretation: &MemoryText{},
		KeyPoints:          &MemoryList{},
		Actions:            &MemoryList{},
		QuestionsSection:   &MemoryPanel{Name: "questions"},
		Questions:          &MemoryList{},
		Disclaimer:         &MemoryText{},
		Scroller:           &MemoryScroller{},
	}
}
