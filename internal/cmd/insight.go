package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/form"
	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/insight/client"
	"github.com/astrasemi/qualitylens/internal/observability"
	"github.com/astrasemi/qualitylens/internal/output"
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Request a quality risk insight for one observation",
	Long: `Send one observation to the insight endpoint and print the result.

The observation comes from --text, from a canned scenario via --example, or
from stdin when --text is "-". Validation and request failures are printed
the same way the form shows them, and the command exits non-zero.`,
	Example: `  qualitylens insight --text "Humidity slightly high in Zone C. Minor particle alert earlier."
  qualitylens insight --example humidity --format json
  echo "..." | qualitylens insight --text - --context "Wafer handling"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		text, _ := cmd.Flags().GetString("text")
		example, _ := cmd.Flags().GetString("example")
		noteContext, _ := cmd.Flags().GetString("context")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		outPath, _ := cmd.Flags().GetString("out")

		if strings.TrimSpace(text) == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(noteContext) == "" {
			noteContext = cfg.Insight.DefaultContext
		}
		if strings.TrimSpace(endpoint) == "" {
			endpoint = cfg.Insight.Endpoint
		}
		if timeout <= 0 {
			timeout = cfg.Insight.Timeout
		}

		c := client.New(endpoint)
		if timeout > 0 {
			c.Timeout = timeout
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer sink.Close() // nolint:errcheck // best-effort cleanup

		submitErr := runInsight(ctx, c, insightRunOptions{
			Text:    text,
			Example: example,
			Context: noteContext,
			Format:  format,
		}, sink)
		if submitErr != nil {
			observability.CLILogger.Debug("Insight request failed",
				zap.String("endpoint", c.URL()),
				zap.Error(submitErr))
			_ = sink.Close()
			ExitWithCode(nil, insightExitCode(submitErr), "insight request failed", submitErr)
		}
		return nil
	},
}

type insightRunOptions struct {
	Text    string
	Example string
	Context string
	Format  output.Format
}

// runInsight drives one form cycle on an in-memory page and writes what the
// page ends up showing. The returned error is the cycle's failure, already
// rendered to w.
func runInsight(ctx context.Context, fetcher form.Fetcher, opts insightRunOptions, w io.Writer) error {
	page := form.NewMemoryPage()
	controller := form.NewController(page, fetcher)

	noteContext := strings.TrimSpace(opts.Context)
	if noteContext == "" {
		noteContext = insight.DefaultContext
	}
	page.Context.SetValue(noteContext)

	if strings.TrimSpace(opts.Example) != "" {
		controller.Autofill(opts.Example)
	} else {
		controller.Edit(opts.Text)
	}

	submitErr := controller.Submit(ctx)

	rendered, err := output.NewFormatter(opts.Format).FormatView(output.ViewFromPage(page))
	if err != nil {
		return fmt.Errorf("render insight: %w", err)
	}
	if _, err := fmt.Fprintln(w, rendered); err != nil {
		return fmt.Errorf("write insight: %w", err)
	}
	return submitErr
}

func init() {
	rootCmd.AddCommand(insightCmd)

	insightCmd.Flags().String("text", "", `observation text ("-" reads stdin)`)
	insightCmd.Flags().String("example", "", fmt.Sprintf("use a canned observation (%s)", strings.Join(insight.ExampleLabels(), ", ")))
	insightCmd.Flags().String("context", "", fmt.Sprintf("observation context (default %q)", insight.DefaultContext))
	insightCmd.Flags().String("endpoint", "", "insight server base URL (default from insight.endpoint)")
	insightCmd.Flags().Duration("timeout", 0, "request timeout (default from insight.timeout)")
	insightCmd.Flags().String("format", string(output.FormatTable), "output format: table, json, markdown")
	insightCmd.Flags().String("out", "", "write output to file instead of stdout")
}
