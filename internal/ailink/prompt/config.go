package prompt

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fulmenhq/gofulmen/schema"
)

// Config describes a prompt definition loaded from YAML.
type Config struct {
	Slug           string         `yaml:"slug" json:"slug"`
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string         `yaml:"version,omitempty" json:"version,omitempty"`
	Input          InputSpec      `yaml:"input,omitempty" json:"input,omitempty"`
	SystemTemplate string         `yaml:"system_template,omitempty" json:"system_template,omitempty"`
	UserTemplate   string         `yaml:"user_template,omitempty" json:"user_template,omitempty"`
	ResponseSchema map[string]any `yaml:"response_schema,omitempty" json:"response_schema,omitempty"`
	ResponseOpts   ResponseOpts   `yaml:"response_options,omitempty" json:"response_options,omitempty"`
	ProviderHints  map[string]any `yaml:"provider_hints,omitempty" json:"provider_hints,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty" json:"required_variables,omitempty"`
	OptionalVariables []string `yaml:"optional_variables,omitempty" json:"optional_variables,omitempty"`
}

// ResponseOpts carries sampling parameters for the completion call.
type ResponseOpts struct {
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Format      string   `yaml:"format,omitempty" json:"format,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string

	schemaOnce sync.Once
	validator  *schema.Validator
	schemaErr  error
}

// ResponseValidator returns the compiled response schema, or nil when the
// prompt declares none. The schema is compiled once; Config.ResponseSchema
// must not change after the first call.
func (p *Prompt) ResponseValidator() (*schema.Validator, error) {
	if p == nil || len(p.Config.ResponseSchema) == 0 {
		return nil, nil
	}
	p.schemaOnce.Do(func() {
		raw, err := json.Marshal(p.Config.ResponseSchema)
		if err != nil {
			p.schemaErr = fmt.Errorf("encode response schema: %w", err)
			return
		}
		if p.validator, err = schema.NewValidator(raw); err != nil {
			p.schemaErr = fmt.Errorf("compile response schema: %w", err)
		}
	})
	return p.validator, p.schemaErr
}
