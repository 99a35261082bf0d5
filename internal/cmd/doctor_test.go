package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/ailink/prompt"
	"github.com/astrasemi/qualitylens/internal/config"
	"github.com/astrasemi/qualitylens/internal/insight"
)

func TestBuildInitConfigWithoutKey(t *testing.T) {
	data, err := buildInitConfig("")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "server")
	assert.Contains(t, doc, "insight")

	ai, ok := doc["ailink"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, ai, "providers")

	ins := doc["insight"].(map[string]any)
	assert.Equal(t, insight.DefaultContext, ins["default_context"])
}

func TestBuildInitConfigLoadsAsReadyProvider(t *testing.T) {
	data, err := buildInitConfig("sk-test")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))

	ctx := context.Background()
	v := viper.New()
	require.NoError(t, config.Setup(ctx, v, path))
	cfg, err := config.Load(ctx, v)
	require.NoError(t, err)

	provider, ok := cfg.AILink.Providers["openai"]
	require.True(t, ok)
	assert.Equal(t, "openai", provider.AIProvider)
	require.Len(t, provider.Credentials, 1)
	assert.Equal(t, "sk-test", provider.Credentials[0].APIKey)
	assert.True(t, ailink.NewRegistry(cfg.AILink).Ready(ailink.RoleQualityInsight))
}

func TestWriteResolution(t *testing.T) {
	cfg := &config.Config{AILink: ailink.Config{
		Providers: map[string]ailink.ProviderInstanceConfig{
			"openai": {
				Enabled:     true,
				AIProvider:  "openai",
				Models:      map[string]string{"default": "gpt-4o-mini"},
				Roles:       []string{ailink.RoleQualityInsight},
				Credentials: []ailink.CredentialConfig{{Enabled: true, Label: "ops", APIKey: "sk-test"}},
			},
		},
	}}
	def := &prompt.Prompt{Config: prompt.Config{Slug: ailink.RoleQualityInsight}}

	resolved, err := ailink.NewRegistry(cfg.AILink).Resolve(ailink.RoleQualityInsight, def, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	writeResolution(&buf, ailink.RoleQualityInsight, def, resolved)
	out := buf.String()
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "provider models.default")
	assert.Contains(t, out, "roles")
	assert.Contains(t, out, "ops")
	assert.Contains(t, out, "(set)")
	assert.NotContains(t, out, "sk-test")
}

func TestWriteResolutionShowsRoutingTarget(t *testing.T) {
	cfg := ailink.Config{
		Routing: map[string]string{ailink.RoleQualityInsight: "gateway"},
		Providers: map[string]ailink.ProviderInstanceConfig{
			"gateway": {
				Enabled:     true,
				AIProvider:  "openai",
				Credentials: []ailink.CredentialConfig{{Enabled: true, Label: "ops", APIKey: "sk-test"}},
			},
		},
	}
	def := &prompt.Prompt{Config: prompt.Config{Slug: ailink.RoleQualityInsight}}

	resolved, err := ailink.NewRegistry(cfg).Resolve(ailink.RoleQualityInsight, def, "gpt-4o")
	require.NoError(t, err)

	var buf bytes.Buffer
	writeResolution(&buf, ailink.RoleQualityInsight, def, resolved)
	assert.Contains(t, buf.String(), "routing (quality-insight -> gateway)")
	assert.Contains(t, buf.String(), "--model")
}

func TestPingEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/live" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	require.NoError(t, pingEndpoint(context.Background(), srv.URL+"/"))
	require.Error(t, pingEndpoint(context.Background(), ""))
}
