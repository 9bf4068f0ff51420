package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/stresslens/internal/artifact"
	"github.com/abhisek/stresslens/internal/forest"
	"github.com/abhisek/stresslens/internal/stress"
	"github.com/abhisek/stresslens/internal/ui/theme"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect classifier artifacts",
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Validate an artifact and print its shape (default: embedded model)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if p, _ := cmd.Flags().GetString("model"); p != "" {
			path = p
		}

		f, err := stress.LoadForestFile(path)
		if err != nil {
			return err
		}
		st := f.Stats()

		if wantJSON(cmd) {
			return printJSON(cmd, map[string]any{
				"format_version": f.Version(),
				"features":       f.Features(),
				"classes":        f.Classes(),
				"stats":          st,
				"embedded":       path == "",
			})
		}

		source := path
		if source == "" {
			source = "(embedded)"
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Artifact:   %s\n", source)
		fmt.Fprintf(w, "Version:    %s\n", f.Version())
		fmt.Fprintf(w, "Classes:    %s\n", strings.Join(f.Classes(), ", "))
		fmt.Fprintf(w, "Trees:      %d\n", st.Trees)
		fmt.Fprintf(w, "Nodes:      %d (%d leaves)\n", st.Nodes, st.Leaves)
		fmt.Fprintf(w, "Depth:      max %d, mean %.2f\n", st.MaxDepth, st.MeanDepth)
		printSplits(cmd, f, st)
		if path == "" {
			fmt.Fprintln(w, theme.Hint.Render(embeddedNote))
		}
		return nil
	},
}

const embeddedNote = "The embedded forest is a placeholder, not a trained model. " +
	"Install a trained export with `stresslens model pull` or pass --model."

func printSplits(cmd *cobra.Command, f *forest.Forest, st forest.Stats) {
	rows := make([][]string, 0, len(f.Features()))
	for i, name := range f.Features() {
		rows = append(rows, []string{strconv.Itoa(i), name, strconv.Itoa(st.FeatureSplits[i])})
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"#", "Feature", "Splits"}, rows))
}

var modelPullCmd = &cobra.Command{
	Use:   "pull <url>",
	Short: "Download, verify and install a forest artifact",
	Long: "Download a forest artifact, verify it against the checksums.txt published beside it, " +
		"validate it and install it atomically. Use the installed file with --model or model.path.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		dest, _ := cmd.Flags().GetString("out")
		if dest == "" {
			if dest, err = artifact.DefaultPath(); err != nil {
				return err
			}
		}
		checksums, _ := cmd.Flags().GetString("checksums")
		insecure, _ := cmd.Flags().GetBool("insecure")

		w := cmd.OutOrStdout()
		res, err := artifact.NewFetcher(nil, logger).Pull(cmd.Context(), artifact.PullInput{
			URL:          args[0],
			ChecksumsURL: checksums,
			Insecure:     insecure,
			Dest:         dest,
		}, func(p artifact.Progress) {
			fmt.Fprintln(w, p.Message)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\nVersion:  %s\nTrees:    %d\nSHA-256:  %s\n", res.Version, res.Trees, res.SHA256)
		fmt.Fprintf(w, "Run with --model %s to use it.\n", res.Path)
		return nil
	},
}

func init() {
	modelInspectCmd.Flags().Bool("json", false, "Print JSON instead of formatted output")
	modelPullCmd.Flags().StringP("out", "o", "", "Install path (default: $XDG_DATA_HOME/stresslens/forest.json)")
	modelPullCmd.Flags().String("checksums", "", "Checksums manifest URL (default: checksums.txt beside the artifact)")
	modelPullCmd.Flags().Bool("insecure", false, "Skip checksum verification")
	modelCmd.AddCommand(modelInspectCmd)
	modelCmd.AddCommand(modelPullCmd)
}
