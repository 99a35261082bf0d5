package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
)

var frontmatterFence = []byte("---")

// Load parses a prompt file. The file is either a markdown body under a
// YAML frontmatter block, in which case the body becomes the system
// template unless the frontmatter sets one, or a plain YAML document.
func Load(source string, data []byte) (*Prompt, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("prompt %s: %w", source, err)
	}
	p := &Prompt{Config: cfg, Source: source}
	if _, err := p.ResponseValidator(); err != nil {
		return nil, fmt.Errorf("prompt %s: %w", source, err)
	}
	return p, nil
}

func decode(data []byte) (Config, error) {
	var cfg Config
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return cfg, errors.New("empty prompt")
	}

	front, body, fenced := splitFrontmatter(data)
	if !fenced {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid yaml: %w", err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(front, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if strings.TrimSpace(cfg.SystemTemplate) == "" {
		cfg.SystemTemplate = strings.TrimSpace(string(body))
	}
	return cfg, nil
}

// splitFrontmatter separates a leading "---" fenced block from the rest.
// An unterminated fence treats everything after it as frontmatter.
func splitFrontmatter(data []byte) (front, body []byte, fenced bool) {
	first, rest, _ := bytes.Cut(data, []byte("\n"))
	if !bytes.Equal(bytes.TrimSpace(first), frontmatterFence) {
		return nil, data, false
	}

	var lines [][]byte
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = bytes.Cut(rest, []byte("\n"))
		if bytes.Equal(bytes.TrimSpace(line), frontmatterFence) {
			return bytes.Join(lines, []byte("\n")), rest, true
		}
		lines = append(lines, line)
	}
	return bytes.Join(lines, []byte("\n")), nil, true
}

func (c Config) validate() error {
	slug := strings.TrimSpace(c.Slug)
	if slug == "" {
		return errors.New("slug is required")
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug %q must be lowercase kebab-case", slug)
	}
	if strings.TrimSpace(c.SystemTemplate) == "" {
		return errors.New("missing system_template")
	}

	opts := c.ResponseOpts
	if opts.Temperature != nil && (*opts.Temperature < 0 || *opts.Temperature > 2) {
		return errors.New("response_options.temperature must be between 0 and 2")
	}
	if opts.MaxTokens != nil && *opts.MaxTokens <= 0 {
		return errors.New("response_options.max_tokens must be positive")
	}
	if opts.Format != "" && opts.Format != "text" && opts.Format != "json_object" {
		return fmt.Errorf("response_options.format %q is not supported", opts.Format)
	}

	used := templateVariables(c.SystemTemplate, c.UserTemplate)
	for _, name := range c.Input.RequiredVariables {
		if !slices.Contains(used, name) {
			return fmt.Errorf("required variable %q is not used by any template", name)
		}
	}
	return nil
}

// Slug is the trimmed lookup key of the prompt.
func (p *Prompt) Slug() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Config.Slug)
}

// Variables returns the distinct {{name}} placeholders of the templates in
// order of first use.
func (p *Prompt) Variables() []string {
	if p == nil {
		return nil
	}
	return templateVariables(p.Config.SystemTemplate, p.Config.UserTemplate)
}

func templateVariables(templates ...string) []string {
	var names []string
	for _, tmpl := range templates {
		for _, match := range variablePattern.FindAllStringSubmatch(tmpl, -1) {
			if !slices.Contains(names, match[1]) {
				names = append(names, match[1])
			}
		}
	}
	return names
}
