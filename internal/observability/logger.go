// Package observability owns the process-wide loggers and the telemetry
// system. Both are nil until initialized; callers check before use.
package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger serves interactive commands (SIMPLE profile).
	CLILogger *logging.Logger

	// ServerLogger serves `qualitylens serve` (STRUCTURED profile).
	ServerLogger *logging.Logger
)

// ServerLoggerOptions configures the structured server logger.
type ServerLoggerOptions struct {
	Service     string
	Level       string
	Format      string // json or console
	Environment string
	Namespace   string
}

var severities = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// InitCLILogger installs CLILogger. Failure exits the process since no
// logger is available to report it.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		fatal("Failed to initialize CLI logger", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
}

// InitServerLogger installs ServerLogger, exiting the process on failure.
func InitServerLogger(opts ServerLoggerOptions) {
	logger, err := NewServerLogger(opts)
	if err != nil {
		fatal("Failed to initialize server logger", err)
	}
	ServerLogger = logger
}

// NewServerLogger builds a structured stderr logger with request
// correlation enabled. It does not touch the package globals.
func NewServerLogger(opts ServerLoggerOptions) (*logging.Logger, error) {
	fields := map[string]any{}
	if opts.Namespace != "" {
		fields["namespace"] = opts.Namespace
	}
	env := opts.Environment
	if env == "" {
		env = "production"
	}

	return logging.New(&logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(opts.Level),
		Service:      opts.Service,
		Environment:  env,
		StaticFields: fields,
		Middleware: []logging.MiddlewareConfig{{
			Name:    "correlation",
			Enabled: true,
			Order:   100,
			Config:  map[string]any{},
		}},
		Sinks:            []logging.SinkConfig{stderrSink(opts.Format)},
		EnableCaller:     true,
		EnableStacktrace: true,
	})
}

func stderrSink(format string) logging.SinkConfig {
	return logging.SinkConfig{
		Type:    "console",
		Format:  parseLogFormat(format),
		Console: &logging.ConsoleSinkConfig{Stream: "stderr"},
	}
}

// parseLogLevel maps a config level to its severity name; unknown is INFO.
func parseLogLevel(level string) string {
	if s, ok := severities[strings.ToLower(strings.TrimSpace(level))]; ok {
		return s
	}
	return "INFO"
}

func parseLogFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		return "console"
	}
	return "json"
}

func fatal(msg string, err error) {
	code := foundry.ExitConfigInvalid
	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	if info, ok := foundry.GetExitCodeInfo(code); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}
	os.Exit(int(code))
}
