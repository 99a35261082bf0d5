package config

import (
	"strconv"
	"strings"
)

// Provider and routing keys are user-defined, so viper's AutomaticEnv cannot
// bind them. They are folded into the settings map before decoding:
//
//	QUALITYLENS_AILINK_PROVIDERS_<ID>_AI_PROVIDER=openai
//	QUALITYLENS_AILINK_PROVIDERS_<ID>_MODELS_DEFAULT=gpt-4o-mini
//	QUALITYLENS_AILINK_PROVIDERS_<ID>_CREDENTIALS_0_API_KEY=...
//	QUALITYLENS_AILINK_ROUTING_QUALITY_INSIGHT=<id>
//
// An <ID> of LAB_GATEWAY becomes the provider "lab-gateway".

// providerScalars are the single-valued provider fields settable from env.
var providerScalars = map[string]func(string) any{
	"ENABLED":            envBool,
	"AI_PROVIDER":        envLower,
	"BASE_URL":           envString,
	"DEFAULT_CREDENTIAL": envString,
	"SELECTION_POLICY":   envLower,
}

// providerMarkers end the <ID> segment. The earliest match wins, so an ID may
// itself contain underscores.
var providerMarkers = []string{
	"_ENABLED", "_AI_PROVIDER", "_BASE_URL", "_DEFAULT_CREDENTIAL",
	"_SELECTION_POLICY", "_MODELS_", "_CREDENTIALS_",
}

func envBool(v string) any   { return strings.EqualFold(v, "true") }
func envLower(v string) any  { return strings.ToLower(v) }
func envString(v string) any { return v }

func applyProviderEnv(prefix string, environ []string, settings map[string]any) {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	providersKey := prefix + "AILINK_PROVIDERS_"
	routingKey := prefix + "AILINK_ROUTING_"

	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(key, providersKey); ok {
			setProviderField(settings, rest, value)
		} else if role, ok := strings.CutPrefix(key, routingKey); ok {
			if role = toSlug(role); role != "" {
				child(child(settings, "ailink"), "routing")[role] = value
			}
		}
	}
}

func setProviderField(settings map[string]any, rest, value string) {
	cut := -1
	for _, m := range providerMarkers {
		if i := strings.Index(rest, m); i > 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return
	}
	id, field := toSlug(rest[:cut]), rest[cut+1:]
	if id == "" {
		return
	}
	provider := child(child(child(settings, "ailink"), "providers"), id)

	if role, ok := strings.CutPrefix(field, "MODELS_"); ok {
		child(provider, "models")[strings.ToLower(role)] = value
		return
	}
	if spec, ok := strings.CutPrefix(field, "CREDENTIALS_"); ok {
		setCredentialField(provider, spec, value)
		return
	}
	if convert, ok := providerScalars[field]; ok {
		provider[strings.ToLower(field)] = convert(value)
	}
}

// maxEnvCredentials bounds the credential index accepted from env. Higher
// indexes are ignored.
const maxEnvCredentials = 32

// setCredentialField handles "<n>_<FIELD>" below CREDENTIALS_.
func setCredentialField(provider map[string]any, spec, value string) {
	rawIdx, field, ok := strings.Cut(spec, "_")
	idx, err := strconv.Atoi(rawIdx)
	if !ok || err != nil || idx < 0 || idx >= maxEnvCredentials || field == "" {
		return
	}

	creds, _ := provider["credentials"].([]any)
	for len(creds) <= idx {
		creds = append(creds, map[string]any{})
	}
	provider["credentials"] = creds
	cred, ok := creds[idx].(map[string]any)
	if !ok {
		cred = map[string]any{}
		creds[idx] = cred
	}

	field = strings.ToLower(field)
	switch field {
	case "priority":
		if n, err := strconv.Atoi(value); err == nil {
			cred[field] = n
		}
	case "enabled":
		cred[field] = envBool(value)
	default:
		cred[field] = value
	}
}

// child returns parent[key] as a map, replacing any non-map value.
func child(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

func toSlug(raw string) string {
	var parts []string
	for _, p := range strings.Split(raw, "_") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}
