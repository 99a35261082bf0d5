// Package form implements the Quality Risk Insight input controller and its
// request/render cycle against an explicit render context.
package form

// Text is a display surface holding a single string.
type Text interface {
	SetText(text string)
	Text() string
}

// List is an ordered list surface. SetItems replaces all previous items.
type List interface {
	SetItems(items []string)
	Items() []string
}

// Panel is a surface that can be shown or hidden.
type Panel interface {
	Show()
	Hide()
	Visible() bool
}

// Badge is a text surface with a style class.
type Badge interface {
	Text
	SetClass(class string)
	Class() string
}

// Button is the submit control.
type Button interface {
	SetEnabled(enabled bool)
	Enabled() bool
	SetLabel(label string)
	Label() string
}

// Field is an editable input.
type Field interface {
	Value() string
	SetValue(value string)
	Focus()
	Focused() bool
}

// ScrollBehavior mirrors the smooth, top-aligned scroll used when a panel is
// revealed.
type ScrollBehavior struct {
	Smooth bool
	Block  string
}

// RevealScroll is the behavior used for result and error panels.
var RevealScroll = ScrollBehavior{Smooth: true, Block: "start"}

// Scroller brings a panel into view.
type Scroller interface {
	ScrollIntoView(target Panel, behavior ScrollBehavior)
}

// Page is the render context: it owns every surface the controller and the
// cycle touch. Nothing else is looked up implicitly.
type Page struct {
	Observation Field
	Context     Field
	CharCount   Text
	Submit      Button

	Loading      Panel
	ErrorPanel   Panel
	ErrorMessage Text

	ResultPanel        Panel
	RiskBadge          Badge
	RiskInterpretation Text
	KeyPoints          List
	Actions            List
	QuestionsSection   Panel
	Questions          List
	Disclaimer         Text

	Scroller Scroller
}

func (p *Page) scrollTo(target Panel) {
	if p.Scroller != nil {
		p.Scroller.ScrollIntoView(target, RevealScroll)
	}
}
