package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/ailink/driver"
	"github.com/astrasemi/qualitylens/internal/appid"
	"github.com/astrasemi/qualitylens/internal/config"
	"github.com/astrasemi/qualitylens/internal/observability"
)

// Persistent flags.
var (
	cfgFile   string
	verbose   bool
	traceFile string
)

var (
	appIdentity *appidentity.Identity

	// stopTracing closes the trace file opened by --trace or config.
	stopTracing = func() {}

	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo records the build stamp reported by version, health and
// serve.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate = version, commit, buildDate
}

// GetAppIdentity returns the identity applied to the root command.
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

var rootCmd = &cobra.Command{
	Use:          appid.BinaryName,
	Short:        "Quality Risk Insight helper",
	SilenceUsage: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		stopTracing()
	},
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep config loading from emitting metrics; serve installs the real
	// telemetry system once it knows whether metrics are enabled.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Applied here as well as in initConfig so --help shows the identity.
	if identity, err := appid.Get(context.Background()); err == nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/qualitylens/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&traceFile, "trace", "", "append provider requests and responses to this NDJSON file")
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

func applyIdentity(identity *appidentity.Identity) {
	if identity == nil {
		return
	}
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
		rootCmd.Long = fmt.Sprintf("%s - %s\n\nSubmit process observations for a beginner-friendly risk reading,\nor serve the insight endpoint for other clients.", rootCmd.Use, identity.Description)
	}
}

// initConfig runs before every command: CLI logger, tracing, then viper.
func initConfig() {
	ctx := context.Background()
	identity, err := appid.Get(ctx)
	if err != nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to load app identity", err)
	}
	applyIdentity(identity)

	observability.InitCLILogger(identity.BinaryName, verbose)
	enableTracing(traceFile)

	if err := config.Setup(ctx, viper.GetViper(), cfgFile); err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to read configuration", err)
	}
	if used := configFileUsed(); used != "" {
		observability.CLILogger.Debug("Using config file", zap.String("path", used))
	} else {
		observability.CLILogger.Debug("No config file found; using defaults and environment")
	}
}

// enableTracing starts NDJSON provider tracing to path. The first enabled
// path wins; an empty path is a no-op.
func enableTracing(path string) {
	if path == "" || driver.IsTracingEnabled() {
		return
	}
	stop, err := driver.EnableTracing(path)
	if err != nil {
		observability.CLILogger.Warn("Provider tracing disabled", zap.String("file", path), zap.Error(err))
		return
	}
	stopTracing = stop
	observability.CLILogger.Debug("Provider tracing enabled", zap.String("file", path))
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return config.Load(ctx, viper.GetViper())
}

func configFileUsed() string {
	return viper.ConfigFileUsed()
}
