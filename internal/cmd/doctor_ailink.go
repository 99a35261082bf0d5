package cmd

import (
	"cmp"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/ailink/prompt"
)

var (
	doctorAILinkRole  string
	doctorAILinkModel string
)

var doctorAILinkCmd = &cobra.Command{
	Use:   "ailink [prompt-slug]",
	Short: "Inspect insight provider resolution",
	Long: `Resolve the insight role (or another role/prompt) to a provider instance
and show model and credential selection. Fails when no provider resolves,
which is when the server answers with mock insights.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		promptSlug := ailink.RoleQualityInsight
		if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
			promptSlug = strings.TrimSpace(args[0])
		}
		role := cmp.Or(strings.TrimSpace(doctorAILinkRole), ailink.RoleQualityInsight)

		promptRegistry, err := buildPromptRegistry(cfg)
		if err != nil {
			return fmt.Errorf("load prompt registry: %w", err)
		}
		promptDef, err := promptRegistry.Get(promptSlug)
		if err != nil {
			return fmt.Errorf("prompt not found: %w", err)
		}

		resolved, err := ailink.NewRegistry(cfg.AILink).Resolve(role, promptDef, doctorAILinkModel)
		if err != nil {
			return fmt.Errorf("resolve provider: %w", err)
		}

		writeResolution(cmd.OutOrStdout(), role, promptDef, resolved)
		return nil
	},
}

// modelSources labels ResolvedProvider.ModelSource for display.
var modelSources = map[string]string{
	"override": "--model",
	"provider": "provider models.default",
	"prompt":   "prompt preferred_models",
}

func writeResolution(w io.Writer, role string, promptDef *prompt.Prompt, resolved *ailink.ResolvedProvider) {
	route := resolved.Route
	if route == "routing" {
		route = fmt.Sprintf("routing (%s -> %s)", role, resolved.ProviderID)
	}
	apiKey := "(not set)"
	if strings.TrimSpace(resolved.Credential.APIKey) != "" {
		apiKey = "(set)"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"role", role},
		{"prompt", promptDef.Slug()},
		{"resolved by", route},
		{"provider id", resolved.ProviderID},
		{"ai_provider", resolved.Provider.AIProvider},
		{"base_url", resolved.BaseURL},
		{"model", resolved.Model},
		{"model source", cmp.Or(modelSources[resolved.ModelSource], resolved.ModelSource)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"selection_policy", cmp.Or(strings.TrimSpace(resolved.Provider.SelectionPolicy), "priority")},
		{"credential", resolved.Credential.Label},
		{"priority", resolved.Credential.Priority},
		{"api_key", apiKey},
	})
	t.Render()
}

func init() {
	doctorCmd.AddCommand(doctorAILinkCmd)

	doctorAILinkCmd.Flags().StringVar(&doctorAILinkRole, "role", "", "role to resolve (default quality-insight)")
	doctorAILinkCmd.Flags().StringVar(&doctorAILinkModel, "model", "", "model override (defaults to prompt/provider config)")
}
