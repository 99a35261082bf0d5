package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astrasemi/qualitylens/internal/output"
)

// outputSink is where a command's rendered result goes.
type outputSink struct {
	io.Writer
	path  string
	close func() error
}

func (s *outputSink) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

// openSink returns stdout for "" or "-", else creates path and any missing
// parent directories.
func openSink(path string) (*outputSink, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return &outputSink{Writer: os.Stdout, path: "-"}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path) // #nosec G304 -- operator-supplied output path
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	return &outputSink{Writer: f, path: path, close: f.Close}, nil
}
