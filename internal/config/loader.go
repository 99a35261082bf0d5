// Package config loads qualitylens configuration through viper: built-in
// defaults, an optional YAML file discovered via the app identity, and
// QUALITYLENS_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/astrasemi/qualitylens/internal/appid"
	"github.com/astrasemi/qualitylens/internal/insight"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// defaults are the built-in values under every file and env layer.
var defaults = map[string]any{
	"server.host":             "localhost",
	"server.port":             8080,
	"server.read_timeout":     "30s",
	"server.write_timeout":    "90s",
	"server.idle_timeout":     "120s",
	"server.shutdown_timeout": "10s",
	"server.admin_token":      "",

	"logging.level":       "info",
	"logging.format":      "json",
	"logging.environment": "production",

	"metrics.enabled": true,
	"metrics.port":    9090,
	"health.enabled":  true,

	"ailink.default_provider": "",
	"ailink.default_timeout":  "60s",
	"ailink.prompts_dir":      "",
	"ailink.debug.trace_file": "",

	"insight.endpoint":        "http://localhost:8080",
	"insight.timeout":         "60s",
	"insight.default_context": insight.DefaultContext,
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Setup prepares v for loading: defaults, config file discovery and the
// environment prefix. A missing config file is not an error; a named file
// that cannot be read is.
func Setup(ctx context.Context, v *viper.Viper, cfgFile string) error {
	identity, err := appid.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load app identity: %w", err)
	}

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configDirs(identity) {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(strings.TrimSuffix(identity.EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load decodes v into a typed Config, applies dynamic AILink env overrides
// and the OPENAI_* provider seed, and stores the result for GetConfig.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	identity, err := appid.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load app identity: %w", err)
	}

	settings := v.AllSettings()
	applyProviderEnv(identity.EnvPrefix, os.Environ(), settings)

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.AILink = cfg.AILink.WithEnvProvider(
		strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
	)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port out of range: %d", cfg.Metrics.Port)
	}
	if cfg.AILink.DefaultTimeout < 0 {
		return fmt.Errorf("ailink.default_timeout must not be negative")
	}
	if cfg.Insight.Timeout < 0 {
		return fmt.Errorf("insight.timeout must not be negative")
	}
	for id, p := range cfg.AILink.Providers {
		switch strings.ToLower(strings.TrimSpace(p.AIProvider)) {
		case "", "openai", "eino":
		default:
			return fmt.Errorf("ailink.providers.%s.ai_provider %q is not supported", id, p.AIProvider)
		}
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// configDirs lists the config search path: the XDG app config dir, then
// ./config.
func configDirs(identity *appidentity.Identity) []string {
	var dirs []string
	if identity != nil && identity.ConfigName != "" {
		if dir := gfconfig.GetAppConfigDir(identity.ConfigName); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return append(dirs, "./config")
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(ctx context.Context) string {
	identity, err := appid.Get(ctx)
	if err != nil || identity.ConfigName == "" {
		return ""
	}
	dir := gfconfig.GetAppConfigDir(identity.ConfigName)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
