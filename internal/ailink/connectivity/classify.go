package connectivity

import (
	"encoding/json"
	"strings"
)

// layerClass is the classification and hint for a failure at a layer.
var layerClass = map[string][2]string{
	LayerDNS: {"dns_failure", "DNS resolution failed; check VPN or resolver configuration"},
	LayerTCP: {"network_blocked", "TCP connection failed; a VPN or firewall may be blocking outbound traffic"},
	LayerTLS: {"tls_failure", "TLS handshake failed; check for proxy interception or certificate problems"},
}

// httpClass refines an http_auth failure by its error code.
var httpClass = map[string][2]string{
	"NO_API_KEY":           {"misconfigured", "The selected credential has no API key"},
	"AUTH_ERROR":           {"auth_invalid", "API key rejected (401/403); verify the key and its permissions"},
	"RATE_LIMITED":         {"rate_limited", "Provider rate limited the request; retry later or rotate credentials"},
	"PROVIDER_UNAVAILABLE": {"provider_overloaded", "Provider returned 5xx; retry later"},
}

func classify(r *Report) Summary {
	var failed *Check
	for i := range r.Checks {
		if !r.Checks[i].OK && !r.Checks[i].Skipped {
			failed = &r.Checks[i]
			break
		}
	}
	if failed == nil {
		return Summary{OK: true, Classification: "ok"}
	}

	s := Summary{FailureLayer: failed.Name, Classification: "http_error"}
	if r.Environment.HTTPProxySet || r.Environment.HTTPSProxySet {
		s.Hints = append(s.Hints, "Proxy environment variables are set; a proxy may be intercepting or denying requests")
		if !r.Environment.NoProxyMatches {
			s.Hints = append(s.Hints, "Consider adding the provider host to NO_PROXY")
		}
	}

	class, ok := layerClass[failed.Name]
	if !ok && failed.Error != nil {
		class, ok = httpClass[failed.Error.Code]
	}
	if ok {
		s.Classification = class[0]
		s.Hints = append(s.Hints, class[1])
	}
	return s
}

func proxyEnv(lookup func(string) (string, bool), host string) Env {
	first := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok {
				return v, true
			}
		}
		return "", false
	}

	env := Env{}
	_, env.HTTPProxySet = first("HTTP_PROXY", "http_proxy")
	_, env.HTTPSProxySet = first("HTTPS_PROXY", "https_proxy")
	noProxy, _ := first("NO_PROXY", "no_proxy")
	env.NoProxySet = strings.TrimSpace(noProxy) != ""
	env.NoProxyMatches = env.NoProxySet && noProxyMatches(noProxy, host)
	return env
}

// noProxyMatches reports whether host is covered by a NO_PROXY list, either
// exactly or as a subdomain of an entry.
func noProxyMatches(noProxy, host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "*" || entry == host {
			return true
		}
		entry = strings.TrimPrefix(entry, ".")
		if entry != "" && strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// addBodySnippet keeps a short view of the response body. JSON model lists
// are cut to three entries.
func addBodySnippet(details map[string]any, contentType string, body []byte) {
	if len(body) == 0 {
		return
	}
	details["body_bytes"] = len(body)

	if strings.Contains(strings.ToLower(contentType), "json") {
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err == nil {
			if data, ok := parsed["data"].([]any); ok && len(data) > 3 {
				parsed["data"] = data[:3]
				parsed["data_truncated"] = true
			}
			details["body_json_snippet"] = parsed
			return
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	details["body_text_snippet"] = text
}

// MaskKey shortens an API key to a recognisable hint.
func MaskKey(apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-3:]
}
