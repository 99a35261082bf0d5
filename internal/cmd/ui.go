package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/insight/client"
	"github.com/astrasemi/qualitylens/internal/observability"
	"github.com/astrasemi/qualitylens/internal/tui"
)

var (
	uiEndpoint string
	uiContext  string
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive insight form",
	Long: `Open the Quality Risk Insight form in the terminal.

Keys:
  ctrl+s   submit
  tab      cycle context
  ctrl+e   fill the next example observation
  pgup/dn  scroll results
  esc      quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		endpoint := strings.TrimSpace(uiEndpoint)
		if endpoint == "" {
			endpoint = cfg.Insight.Endpoint
		}
		noteContext := strings.TrimSpace(uiContext)
		if noteContext == "" {
			noteContext = cfg.Insight.DefaultContext
		}

		c := client.New(endpoint)
		if cfg.Insight.Timeout > 0 {
			c.Timeout = cfg.Insight.Timeout
		}

		observability.CLILogger.Debug("Starting interactive form", zap.String("endpoint", c.URL()))
		return tui.Run(ctx, c, tui.Options{Context: noteContext})
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().StringVar(&uiEndpoint, "endpoint", "", "insight server base URL (default from insight.endpoint)")
	uiCmd.Flags().StringVar(&uiContext, "context", "", "preselected observation context")
}
