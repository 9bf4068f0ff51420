package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/abhisek/stresslens/internal/stress"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// buildVersion prefers the ldflags value, then the module version recorded
// by go install.
func buildVersion() string {
	if version != "(devel)" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build and embedded model versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "stresslens", buildVersion())

		if full, _ := cmd.Flags().GetBool("full"); full {
			source, _ := cmd.Flags().GetString("model")
			f, err := stress.LoadForestFile(source)
			if err != nil {
				return err
			}
			if source == "" {
				source = "embedded"
			}
			fmt.Fprintf(w, "model      %s (%d trees, %s)\n", f.Version(), f.Size(), source)
			fmt.Fprintf(w, "go         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("full", false, "Also print the model in use and the Go toolchain")
}
