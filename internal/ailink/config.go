package ailink

import (
	"maps"
	"time"
)

// RoleQualityInsight routes quality insight requests.
const RoleQualityInsight = "quality-insight"

// Config is the ailink section: provider instances, role routing and the
// prompt override directory.
type Config struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// PromptsDir allows operators to override the built-in prompt set.
	PromptsDir string `mapstructure:"prompts_dir"`

	Debug DebugConfig `mapstructure:"debug"`

	// Providers are keyed by operator-chosen slugs such as "lab-gateway".
	Providers map[string]ProviderInstanceConfig `mapstructure:"providers"`

	Routing map[string]string `mapstructure:"routing"`
}

// DebugConfig controls optional provider diagnostics.
type DebugConfig struct {
	// TraceFile, when set, receives one NDJSON entry per provider call.
	TraceFile string `mapstructure:"trace_file"`
}

// ProviderInstanceConfig is one endpoint plus the credentials used against it.
type ProviderInstanceConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// AIProvider is the driver identifier: "openai" (direct HTTP) or "eino".
	AIProvider string `mapstructure:"ai_provider"`

	// SelectionPolicy is "priority" (default) or "round_robin".
	SelectionPolicy string `mapstructure:"selection_policy"`

	// DefaultCredential pins a credential label, case-insensitively.
	DefaultCredential string `mapstructure:"default_credential"`

	BaseURL string            `mapstructure:"base_url"`
	Models  map[string]string `mapstructure:"models"`
	Roles   []string          `mapstructure:"roles"`

	Credentials []CredentialConfig `mapstructure:"credentials"`
}

// CredentialConfig is an API key; higher Priority wins.
type CredentialConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Label    string `mapstructure:"label"`
	APIKey   string `mapstructure:"api_key"`
	Priority int    `mapstructure:"priority"`
}

// WithEnvProvider returns cfg with an implicit "openai" provider seeded from
// OPENAI_* values, unless a provider with that id is already configured.
func (cfg Config) WithEnvProvider(apiKey, baseURL, model string) Config {
	if apiKey == "" {
		return cfg
	}
	if _, ok := cfg.Providers["openai"]; ok {
		return cfg
	}

	providers := maps.Clone(cfg.Providers)
	if providers == nil {
		providers = map[string]ProviderInstanceConfig{}
	}
	models := map[string]string{}
	if model != "" {
		models["default"] = model
	}
	providers["openai"] = ProviderInstanceConfig{
		Enabled:     true,
		AIProvider:  "openai",
		BaseURL:     baseURL,
		Models:      models,
		Roles:       []string{RoleQualityInsight},
		Credentials: []CredentialConfig{{Enabled: true, Label: "env", APIKey: apiKey}},
	}
	cfg.Providers = providers
	return cfg
}

// WithRoute returns cfg with role routed to providerID. cfg is not modified.
func (cfg Config) WithRoute(role, providerID string) Config {
	routing := maps.Clone(cfg.Routing)
	if routing == nil {
		routing = map[string]string{}
	}
	routing[role] = providerID
	cfg.Routing = routing
	return cfg
}
