// Command qualitylens serves and submits quality risk insights.
package main

import (
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/astrasemi/qualitylens/internal/cmd"
	"github.com/astrasemi/qualitylens/internal/server/handlers"
)

// Stamped at release time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	for _, stamp := range []func(string, string, string){cmd.SetVersionInfo, handlers.SetVersionInfo} {
		stamp(version, commit, buildDate)
	}

	if err := cmd.Execute(); err != nil {
		cmd.ExitWithCodeStderr(foundry.ExitFailure, "qualitylens failed", err)
	}
}
