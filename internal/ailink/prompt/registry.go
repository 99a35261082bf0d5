package prompt

import (
	"fmt"
	"slices"
	"strings"
)

// Registry looks up prompt definitions by slug.
type Registry interface {
	Get(slug string) (*Prompt, error)
	List() []*Prompt
}

// InMemoryRegistry is a Registry over a fixed prompt set.
type InMemoryRegistry struct {
	bySlug map[string]*Prompt
}

// NewRegistry indexes prompts by slug. Nil entries are skipped; missing or
// repeated slugs are errors.
func NewRegistry(prompts []*Prompt) (*InMemoryRegistry, error) {
	reg := &InMemoryRegistry{bySlug: make(map[string]*Prompt, len(prompts))}
	for _, p := range prompts {
		if p == nil {
			continue
		}
		slug := p.Slug()
		switch {
		case slug == "":
			return nil, fmt.Errorf("prompt %s has no slug", p.Source)
		case reg.bySlug[slug] != nil:
			return nil, fmt.Errorf("duplicate prompt slug %q (%s, %s)", slug, reg.bySlug[slug].Source, p.Source)
		}
		reg.bySlug[slug] = p
	}
	return reg, nil
}

// Override returns a copy of r where each of prompts replaces the entry
// with the same slug, or is added when r has none.
func (r *InMemoryRegistry) Override(prompts []*Prompt) *InMemoryRegistry {
	merged := &InMemoryRegistry{bySlug: make(map[string]*Prompt, len(r.bySlug)+len(prompts))}
	for slug, p := range r.bySlug {
		merged.bySlug[slug] = p
	}
	for _, p := range prompts {
		if p != nil && p.Slug() != "" {
			merged.bySlug[p.Slug()] = p
		}
	}
	return merged
}

func (r *InMemoryRegistry) Get(slug string) (*Prompt, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("prompt slug is required")
	}
	if p := r.bySlug[slug]; p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("prompt %q not found", slug)
}

// List returns the prompts ordered by slug.
func (r *InMemoryRegistry) List() []*Prompt {
	if r == nil {
		return nil
	}
	slugs := make([]string, 0, len(r.bySlug))
	for slug := range r.bySlug {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)

	out := make([]*Prompt, len(slugs))
	for i, slug := range slugs {
		out[i] = r.bySlug[slug]
	}
	return out
}

// DefaultRegistry serves the embedded prompts only.
func DefaultRegistry() (Registry, error) {
	return defaultRegistry()
}

// RegistryWithOverrides serves the embedded prompts, replaced slug by slug
// with any prompt file found in dir. An empty dir means no overrides.
func RegistryWithOverrides(dir string) (Registry, error) {
	reg, err := defaultRegistry()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		return reg, nil
	}

	overrides, err := LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	// Reject duplicates within the override dir itself.
	if _, err := NewRegistry(overrides); err != nil {
		return nil, err
	}
	return reg.Override(overrides), nil
}

func defaultRegistry() (*InMemoryRegistry, error) {
	prompts, err := LoadDefaults()
	if err != nil {
		return nil, err
	}
	return NewRegistry(prompts)
}
