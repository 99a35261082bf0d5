package ailink

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/astrasemi/qualitylens/internal/ailink/driver"
	"github.com/astrasemi/qualitylens/internal/ailink/driver/eino"
	"github.com/astrasemi/qualitylens/internal/ailink/driver/openai"
	"github.com/astrasemi/qualitylens/internal/ailink/prompt"
)

var errNoProviders = errors.New("no enabled providers configured")

// Registry turns a role into a ready-to-call driver. Provider choice
// follows routing, then role membership, then the default provider, then
// the single enabled provider. Drivers are built once per provider and
// credential and reused.
type Registry struct {
	cfg Config

	mu      sync.Mutex
	drivers map[string]driver.Driver
	cursors map[string]int
}

// ResolvedProvider is what one insight call runs against.
type ResolvedProvider struct {
	ProviderID string
	Provider   ProviderInstanceConfig
	Credential CredentialConfig
	Driver     driver.Driver
	Model      string
	BaseURL    string

	// Route names the rule that picked the provider: "routing", "roles",
	// "default_provider" or "only_enabled_provider".
	Route string

	// ModelSource is "override", "provider" or "prompt".
	ModelSource string
}

// providerChoice is a provider picked for a role and the rule that picked it.
type providerChoice struct {
	id    string
	cfg   ProviderInstanceConfig
	route string
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg}
}

func (r *Registry) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.cfg
}

// Ready reports whether role would reach a provider with a non-blank API
// key. Callers serve mock insights when it is false.
func (r *Registry) Ready(role string) bool {
	if r == nil {
		return false
	}
	choice, err := r.resolveProvider(role)
	if err != nil {
		return false
	}
	cred, _, err := selectCredential(choice.cfg, nil)
	return err == nil && strings.TrimSpace(cred.APIKey) != ""
}

// Resolve picks provider, credential, model and driver for role.
// modelOverride wins over configured and prompt-preferred models.
func (r *Registry) Resolve(role string, promptDef *prompt.Prompt, modelOverride string) (*ResolvedProvider, error) {
	choice, err := r.resolveProvider(role)
	if err != nil {
		return nil, err
	}
	id, p := choice.id, choice.cfg
	cred, credKey, err := selectCredential(p, func(group string, n int) int {
		return r.rrIndex(id+":"+group, n)
	})
	if err != nil {
		return nil, err
	}
	model, modelSource, err := resolveModel(p, promptDef, modelOverride)
	if err != nil {
		return nil, err
	}
	drv, err := r.driverFor(id, p, cred, credKey, model)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedProvider{
		ProviderID: id,
		Provider:   p,
		Credential: cred,
		Driver:     drv,
		Model:      model,
		BaseURL:    cmp.Or(strings.TrimSpace(p.BaseURL), openai.DefaultBaseURL),

		Route:       choice.route,
		ModelSource: modelSource,
	}
	if client, ok := drv.(*openai.Client); ok {
		resolved.BaseURL = client.BaseURL
	}
	return resolved, nil
}

func (r *Registry) resolveProvider(role string) (providerChoice, error) {
	if r == nil {
		return providerChoice{}, errors.New("ailink registry not configured")
	}

	if role = strings.TrimSpace(role); role != "" {
		if id := strings.TrimSpace(r.cfg.Routing[role]); id != "" {
			return r.enabledProvider(id, "routing", fmt.Sprintf("role %q", role))
		}
		ids := make([]string, 0, len(r.cfg.Providers))
		for id := range r.cfg.Providers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if p := r.cfg.Providers[id]; p.Enabled && hasRole(p.Roles, role) {
				return providerChoice{id: id, cfg: p, route: "roles"}, nil
			}
		}
	}

	if id := strings.TrimSpace(r.cfg.DefaultProvider); id != "" {
		return r.enabledProvider(id, "default_provider", "default_provider")
	}

	var only providerChoice
	for id, p := range r.cfg.Providers {
		if !p.Enabled {
			continue
		}
		if only.id != "" {
			return providerChoice{}, errors.New("no provider routing configured")
		}
		only = providerChoice{id: id, cfg: p, route: "only_enabled_provider"}
	}
	if only.id == "" {
		return providerChoice{}, errNoProviders
	}
	return only, nil
}

func (r *Registry) enabledProvider(id, route, referrer string) (providerChoice, error) {
	p, ok := r.cfg.Providers[id]
	if !ok {
		return providerChoice{}, fmt.Errorf("provider %q referenced by %s is not configured", id, referrer)
	}
	if !p.Enabled {
		return providerChoice{}, fmt.Errorf("provider %q referenced by %s is disabled", id, referrer)
	}
	return providerChoice{id: id, cfg: p, route: route}, nil
}

// selectCredential picks the credential for one call and the key its
// driver is cached under. Unlabeled credentials count as enabled. When no
// credential has a key the first one is returned so callers can report
// the missing key. next, when set, advances round-robin cursors.
func selectCredential(p ProviderInstanceConfig, next func(group string, n int) int) (CredentialConfig, string, error) {
	if len(p.Credentials) == 0 {
		return CredentialConfig{}, "", errors.New("no credentials configured")
	}

	usable := slices.DeleteFunc(slices.Clone(p.Credentials), func(c CredentialConfig) bool {
		label := strings.TrimSpace(c.Label)
		return (!c.Enabled && label != "") || strings.TrimSpace(c.APIKey) == ""
	})
	if len(usable) == 0 {
		first := p.Credentials[0]
		return first, cmp.Or(strings.TrimSpace(first.Label), "0"), nil
	}

	if want := strings.TrimSpace(p.DefaultCredential); want != "" {
		for _, c := range usable {
			if strings.EqualFold(strings.TrimSpace(c.Label), want) {
				return c, strings.TrimSpace(c.Label), nil
			}
		}
	}

	top := slices.MaxFunc(usable, func(a, b CredentialConfig) int { return cmp.Compare(a.Priority, b.Priority) }).Priority
	group := slices.DeleteFunc(usable, func(c CredentialConfig) bool { return c.Priority != top })

	idx := 0
	if next != nil && strings.EqualFold(strings.TrimSpace(p.SelectionPolicy), "round_robin") {
		idx = next(strconv.Itoa(top), len(group))
	}
	chosen := group[idx]
	return chosen, cmp.Or(strings.TrimSpace(chosen.Label), fmt.Sprintf("p%d-%d", top, idx)), nil
}

func (r *Registry) driverFor(id string, p ProviderInstanceConfig, cred CredentialConfig, credKey, model string) (driver.Driver, error) {
	kind := strings.ToLower(strings.TrimSpace(p.AIProvider))
	cacheKey := id + ":" + credKey
	if kind == "eino" {
		// eino chat models are bound to one model when built.
		cacheKey += "@" + model
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if drv, ok := r.drivers[cacheKey]; ok {
		return drv, nil
	}

	var drv driver.Driver
	switch kind {
	case "openai":
		client := openai.NewClient(p.BaseURL, cred.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		drv = client
	case "eino":
		client, err := eino.NewOpenAIClient(context.Background(), p.BaseURL, cred.APIKey, model, r.cfg.DefaultTimeout)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", id, err)
		}
		drv = client
	default:
		return nil, fmt.Errorf("unsupported ai_provider %q for provider %q", cmp.Or(kind, "(unset)"), id)
	}

	if r.drivers == nil {
		r.drivers = make(map[string]driver.Driver)
	}
	r.drivers[cacheKey] = drv
	return drv, nil
}

// resolveModel prefers override, then the provider's models.default, then
// the prompt's first preferred model, and names which one it used.
func resolveModel(p ProviderInstanceConfig, promptDef *prompt.Prompt, override string) (string, string, error) {
	if m := strings.TrimSpace(override); m != "" {
		return m, "override", nil
	}
	if m := strings.TrimSpace(p.Models["default"]); m != "" {
		return m, "provider", nil
	}
	for _, m := range preferredModels(promptDef) {
		if m = strings.TrimSpace(m); m != "" {
			return m, "prompt", nil
		}
	}
	return "", "", errors.New("model not configured")
}

// preferredModels reads provider_hints.preferred_models, which YAML may
// decode as a list or a single string.
func preferredModels(promptDef *prompt.Prompt) []string {
	if promptDef == nil {
		return nil
	}
	switch v := promptDef.Config.ProviderHints["preferred_models"].(type) {
	case []string:
		return v
	case []any:
		var models []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				models = append(models, s)
			}
		}
		return models
	case string:
		if strings.TrimSpace(v) != "" {
			return []string{v}
		}
	}
	return nil
}

func (r *Registry) rrIndex(key string, n int) int {
	if r == nil || n <= 1 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursors == nil {
		r.cursors = make(map[string]int)
	}
	idx := r.cursors[key] % n
	r.cursors[key]++
	return idx
}

func hasRole(roles []string, role string) bool {
	return slices.ContainsFunc(roles, func(r string) bool {
		return strings.EqualFold(strings.TrimSpace(r), role)
	})
}
