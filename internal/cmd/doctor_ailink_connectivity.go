package cmd

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/ailink/connectivity"
	"github.com/astrasemi/qualitylens/internal/output"
)

var (
	connectivityRole        string
	connectivityProviderID  string
	connectivityTimeout     time.Duration
	connectivityQuiet       bool
	connectivityShowSecrets bool
	connectivityOutput      string
)

// connectivityReport is the provider resolution plus the layered checks.
type connectivityReport struct {
	Version    string                 `json:"version,omitempty"`
	Timestamp  string                 `json:"timestamp"`
	Role       string                 `json:"role"`
	Prompt     string                 `json:"prompt"`
	Resolution connectivityResolution `json:"resolution"`
	*connectivity.Report
}

type connectivityResolution struct {
	ProviderID      string `json:"provider_id"`
	Route           string `json:"route"`
	AIProvider      string `json:"ai_provider"`
	BaseURL         string `json:"base_url"`
	Model           string `json:"model,omitempty"`
	ModelSource     string `json:"model_source,omitempty"`
	SelectionPolicy string `json:"selection_policy,omitempty"`
	CredentialLabel string `json:"credential_label,omitempty"`
	APIKeyPresent   bool   `json:"api_key_present"`
	APIKeyHint      string `json:"api_key_hint,omitempty"`
}

var doctorAILinkConnectivityCmd = &cobra.Command{
	Use:   "connectivity [prompt-slug]",
	Short: "Check that the insight provider is reachable and accepts the key",
	Long: `Resolve the insight role to a provider, then run DNS, TCP, TLS and an
authenticated GET of <base_url>/models against it, stopping at the first
failing layer. The summary classifies the failure and suggests a fix.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(connectivityOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format for connectivity: %s", format)
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		promptRegistry, err := buildPromptRegistry(cfg)
		if err != nil {
			return fmt.Errorf("load prompt registry: %w", err)
		}
		promptSlug := ailink.RoleQualityInsight
		if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
			promptSlug = strings.TrimSpace(args[0])
		}
		promptDef, err := promptRegistry.Get(promptSlug)
		if err != nil {
			return fmt.Errorf("prompt not found: %w", err)
		}

		role := cmp.Or(strings.TrimSpace(connectivityRole), ailink.RoleQualityInsight)
		ailinkCfg := cfg.AILink
		if id := strings.TrimSpace(connectivityProviderID); id != "" {
			ailinkCfg = ailinkCfg.WithRoute(role, id)
		}
		resolved, err := ailink.NewRegistry(ailinkCfg).Resolve(role, promptDef, "")
		if err != nil {
			return fmt.Errorf("resolve provider: %w", err)
		}

		report, err := runConnectivity(cmd.Context(), role, promptDef.Slug(), resolved, connectivity.Options{Timeout: connectivityTimeout})
		if err != nil {
			return err
		}

		if !connectivityQuiet {
			if err := writeConnectivityReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
		}
		if !report.Summary.OK {
			return fmt.Errorf("connectivity check failed at %s (%s)", report.Summary.FailureLayer, report.Summary.Classification)
		}
		return nil
	},
}

func runConnectivity(ctx context.Context, role, promptSlug string, resolved *ailink.ResolvedProvider, opts connectivity.Options) (*connectivityReport, error) {
	checks, err := connectivity.Run(ctx, connectivity.Target{
		AIProvider: resolved.Provider.AIProvider,
		BaseURL:    resolved.BaseURL,
		APIKey:     resolved.Credential.APIKey,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", resolved.ProviderID, err)
	}

	res := connectivityResolution{
		ProviderID:      resolved.ProviderID,
		Route:           resolved.Route,
		AIProvider:      resolved.Provider.AIProvider,
		BaseURL:         resolved.BaseURL,
		Model:           resolved.Model,
		ModelSource:     resolved.ModelSource,
		SelectionPolicy: cmp.Or(strings.TrimSpace(resolved.Provider.SelectionPolicy), "priority"),
		CredentialLabel: resolved.Credential.Label,
		APIKeyPresent:   strings.TrimSpace(resolved.Credential.APIKey) != "",
	}
	if res.APIKeyPresent && connectivityShowSecrets {
		res.APIKeyHint = connectivity.MaskKey(resolved.Credential.APIKey)
	}

	return &connectivityReport{
		Version:    versionInfo.Version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Role:       role,
		Prompt:     promptSlug,
		Resolution: res,
		Report:     checks,
	}, nil
}

func writeConnectivityReport(w io.Writer, report *connectivityReport, format output.Format) error {
	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	status := "OK"
	if !report.Summary.OK {
		status = "FAIL"
	}
	lines := []string{
		fmt.Sprintf("Insight provider connectivity (%s)", status),
		"",
		"role:     " + report.Role,
		fmt.Sprintf("provider: %s (%s, via %s)", report.Resolution.ProviderID, report.Resolution.AIProvider, report.Resolution.Route),
		"url:      " + report.Resolution.BaseURL,
		"model:    " + report.Resolution.Model,
		"",
	}
	for _, c := range report.Checks {
		lines = append(lines, checkLine(c))
	}
	if len(report.Summary.Hints) > 0 {
		lines = append(lines, "", "hints:")
		for _, hint := range report.Summary.Hints {
			lines = append(lines, "- "+hint)
		}
	}

	_, err := fmt.Fprint(w, ascii.DrawBox(strings.Join(lines, "\n"), 0))
	return err
}

func checkLine(c connectivity.Check) string {
	label := fmt.Sprintf("%-10s", c.Name+":")
	if c.Skipped {
		return label + "skipped"
	}
	mark, msg := "✅", "ok"
	if !c.OK {
		mark = "❌"
		if c.Error != nil {
			msg = c.Error.Code
		}
	}
	line := fmt.Sprintf("%s%s %s", label, mark, msg)
	if c.LatencyMS > 0 {
		line += fmt.Sprintf(" (%dms)", c.LatencyMS)
	}
	return line
}

func init() {
	doctorAILinkCmd.AddCommand(doctorAILinkConnectivityCmd)

	flags := doctorAILinkConnectivityCmd.Flags()
	flags.StringVar(&connectivityRole, "role", "", "role to resolve (default quality-insight)")
	flags.StringVar(&connectivityProviderID, "provider-id", "", "check this provider instance instead of the routed one")
	flags.DurationVar(&connectivityTimeout, "timeout", connectivity.DefaultTimeout, "timeout per layer")
	flags.BoolVar(&connectivityQuiet, "quiet", false, "exit code only")
	flags.BoolVar(&connectivityShowSecrets, "show-secrets", false, "include a masked api key hint")
	flags.StringVar(&connectivityOutput, "output", string(output.FormatTable), "output format: table|json")
}
