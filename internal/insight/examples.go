package insight

import (
	"sort"
	"strings"
)

var examples = map[string]string{
	"humidity":  "Humidity slightly high in Zone C. Minor particle alert earlier. No visible defects observed.",
	"particles": "Particle counter in the lithography bay spiked twice during second shift, then returned to normal within ten minutes.",
	"equipment": "Etch tool 4 showed an intermittent chamber pressure warning during the last two lots. Operator cleared it and processing continued.",
	"handling":  "Noticed a small scratch near the edge of one wafer after transfer from the FOUP. Other wafers in the lot look fine.",
}

// Contexts lists the selectable observation contexts. Free-form values are
// also accepted.
var Contexts = []string{
	DefaultContext,
	"Cleanroom environment",
	"Equipment / tool",
	"Wafer handling",
	"Incoming material",
}

// Example returns the canned observation for label, or label itself when it
// does not name a known scenario.
func Example(label string) string {
	if text, ok := examples[strings.ToLower(strings.TrimSpace(label))]; ok {
		return text
	}
	return label
}

// ExampleLabels returns the known scenario labels in stable order.
func ExampleLabels() []string {
	labels := make([]string, 0, len(examples))
	for label := range examples {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
