package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/config"
	errwrap "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/observability"
)

const endpointProbeTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the installation, configuration and insight endpoint.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		logger := observability.CLILogger
		identity := GetAppIdentity()
		bannerName := "doctor"
		if identity != nil && identity.BinaryName != "" {
			bannerName = identity.BinaryName + " doctor"
		}
		logger.Info("=== " + bannerName + " ===")
		logger.Info("")

		allChecks := true
		totalChecks := 6

		goVersion := runtime.Version()
		logger.Info(fmt.Sprintf("[1/%d] Checking Go runtime... ✅ %s %s/%s", totalChecks, goVersion, runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Gofulmen != "" {
			logger.Info(fmt.Sprintf("[2/%d] Checking Gofulmen... ✅ v%s (crucible v%s)", totalChecks, version.Gofulmen, version.Crucible))
		} else {
			logger.Warn(fmt.Sprintf("[2/%d] Checking Gofulmen... ⚠️  version unavailable", totalChecks))
			allChecks = false
		}

		configPath := config.DefaultConfigPath(ctx)
		switch {
		case configPath == "":
			logger.Error(fmt.Sprintf("[3/%d] Checking config file... ❌ cannot resolve config directory", totalChecks))
			ExitWithCode(logger, foundry.ExitFileNotFound, "Cannot resolve config directory", errwrap.NewInternalError("config directory not resolved"))
		case fileExists(configPath):
			logger.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ %s", totalChecks, configPath))
		default:
			logger.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ none (defaults; run 'doctor init' to create %s)", totalChecks, configPath))
		}

		cfg, cfgErr := loadConfig(ctx)
		if cfgErr != nil {
			logger.Error(fmt.Sprintf("[4/%d] Checking configuration... ❌ invalid", totalChecks), zap.Error(cfgErr))
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(ctx, cfgErr, "configuration invalid"))
			return
		}
		logger.Info(fmt.Sprintf("[4/%d] Checking configuration... ✅ valid", totalChecks))

		service, err := buildInsightService(cfg)
		if err == nil {
			err = service.CheckHealth(ctx)
		}
		switch {
		case err != nil:
			logger.Error(fmt.Sprintf("[5/%d] Checking insight backend... ❌ prompt unavailable", totalChecks), zap.Error(err))
			allChecks = false
		case service.Providers.Ready(ailink.RoleQualityInsight):
			logger.Info(fmt.Sprintf("[5/%d] Checking insight backend... ✅ provider configured", totalChecks))
		default:
			logger.Warn(fmt.Sprintf("[5/%d] Checking insight backend... ⚠️  no provider (mock insights; set OPENAI_API_KEY or ailink.providers)", totalChecks))
		}

		if err := pingEndpoint(ctx, cfg.Insight.Endpoint); err != nil {
			logger.Warn(fmt.Sprintf("[6/%d] Checking insight endpoint... ⚠️  %s unreachable", totalChecks, cfg.Insight.Endpoint), zap.Error(err))
		} else {
			logger.Info(fmt.Sprintf("[6/%d] Checking insight endpoint... ✅ %s", totalChecks, cfg.Insight.Endpoint))
		}

		logger.Info("")
		if allChecks {
			logger.Info("✅ All checks passed.")
		} else {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		logger.Info("=== End Diagnostics ===")
	},
}

// pingEndpoint checks the liveness route of an insight server.
func pingEndpoint(ctx context.Context, endpoint string) error {
	base := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if base == "" {
		return fmt.Errorf("endpoint not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, endpointProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health/live", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

var (
	doctorInitForce  bool
	doctorInitAPIKey string
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(cmd.Context())
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		data, err := buildInitConfig(apiKey)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		mode := os.FileMode(0644)
		if apiKey != "" {
			mode = 0600
		}
		if err := os.WriteFile(configPath, data, mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd.Context()); err != nil {
			return err
		}
		path := "(defaults)"
		if used := configFileUsed(); used != "" {
			path = used
		}
		observability.CLILogger.Info("Config is valid", zap.String("path", path))
		return nil
	},
}

// initConfigDoc is the YAML document written by doctor init.
type initConfigDoc struct {
	Server  map[string]any `yaml:"server"`
	Logging map[string]any `yaml:"logging"`
	Metrics map[string]any `yaml:"metrics"`
	AILink  map[string]any `yaml:"ailink"`
	Insight map[string]any `yaml:"insight"`
}

// buildInitConfig renders a starter config. With apiKey set it configures an
// openai provider routed to the insight role.
func buildInitConfig(apiKey string) ([]byte, error) {
	doc := initConfigDoc{
		Server: map[string]any{
			"host": "localhost",
			"port": 8080,
		},
		Logging: map[string]any{
			"level":  "info",
			"format": "json",
		},
		Metrics: map[string]any{
			"enabled": true,
			"port":    9090,
		},
		AILink: map[string]any{
			"default_timeout": "60s",
		},
		Insight: map[string]any{
			"endpoint":        "http://localhost:8080",
			"timeout":         "60s",
			"default_context": insight.DefaultContext,
		},
	}
	if apiKey != "" {
		doc.AILink["default_provider"] = "openai"
		doc.AILink["providers"] = map[string]any{
			"openai": map[string]any{
				"enabled":     true,
				"ai_provider": "openai",
				"models":      map[string]any{"default": "gpt-4o"},
				"roles":       []string{ailink.RoleQualityInsight},
				"credentials": []map[string]any{
					{"label": "default", "api_key": apiKey, "enabled": true, "priority": 0},
				},
			},
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "configure an openai provider with this API key")
}
