package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/astrasemi/qualitylens/internal/appid"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for build, Go, Gofulmen and Crucible versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		name := appid.BinaryName
		if identity := GetAppIdentity(); identity != nil && identity.BinaryName != "" {
			name = identity.BinaryName
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, versionInfo.Version)
		if !extended {
			return nil
		}

		deps := crucible.GetVersion()
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendRows([]table.Row{
			{"commit", versionInfo.Commit},
			{"built", versionInfo.BuildDate},
			{"go", runtime.Version()},
			{"platform", runtime.GOOS + "/" + runtime.GOARCH},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"gofulmen", deps.Gofulmen},
			{"crucible", deps.Crucible},
		})
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
