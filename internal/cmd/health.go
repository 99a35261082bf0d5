package cmd

import (
	"context"
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/ailink"
	errwrap "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/observability"
)

// selfCheck is one step of `qualitylens health`. Steps run in order and the
// first failure exits with ExitConfigInvalid.
type selfCheck struct {
	passed string
	failed string
	run    func(ctx context.Context, state *selfCheckState) error
}

type selfCheckState struct {
	service *ailink.Service
}

var selfChecks = []selfCheck{
	{
		passed: "Version information available",
		failed: "Version information missing",
		run: func(context.Context, *selfCheckState) error {
			if versionInfo.Version == "" {
				return errors.New("build did not stamp a version")
			}
			return nil
		},
	},
	{
		passed: "Configuration loaded",
		failed: "Configuration invalid",
		run: func(ctx context.Context, state *selfCheckState) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			state.service, err = buildInsightService(cfg)
			return err
		},
	},
	{
		passed: "Insight prompt loaded",
		failed: "Insight prompt missing",
		run: func(ctx context.Context, state *selfCheckState) error {
			return state.service.CheckHealth(ctx)
		},
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify the server could start with the current configuration and prompts.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		logger := observability.CLILogger
		if logger == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		logger.Info("Running health check...")

		state := &selfCheckState{}
		for _, check := range selfChecks {
			if err := check.run(ctx, state); err != nil {
				ExitWithCode(logger, foundry.ExitConfigInvalid, check.failed, errwrap.WrapConfigInvalid(ctx, err, check.failed))
				return
			}
			logger.Info("✅ " + check.passed)
		}

		if state.service.Providers.Ready(ailink.RoleQualityInsight) {
			logger.Info("✅ Insight provider configured")
		} else {
			logger.Warn("⚠️  No insight provider configured; the server will answer with mock insights")
		}
		logger.Info("✅ All health checks passed", zap.String("version", versionInfo.Version))
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
