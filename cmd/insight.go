package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/stresslens/internal/insight"
	"github.com/abhisek/stresslens/internal/ui/theme"
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Generate an explanation with the configured language model",
	Long: "Generate an explanation with the configured language model.\n\n" +
		"Modes: " + modeList() + ".",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, body, err := readFeatures(cmd)
		if err != nil {
			return err
		}

		modeName, _ := cmd.Flags().GetString("mode")
		mode := insight.Mode(modeName)
		message, _ := cmd.Flags().GetString("message")
		if message == "" {
			if m, ok := body["message"].(string); ok {
				message = m
			}
		}

		a, err := buildApp(cmd, buildOpts{quiet: true})
		if err != nil {
			return err
		}
		defer closeApp(a)

		out, as, err := a.Explain(cmd.Context(), v, mode, message)
		if err != nil {
			return err
		}

		if wantJSON(cmd) {
			switch {
			case out.Prediction != nil:
				return printJSON(cmd, out.Prediction)
			case out.Recommendation != nil:
				return printJSON(cmd, out.Recommendation)
			case out.Mode == insight.ModeChat:
				return printJSON(cmd, map[string]any{"reply": out.Text})
			}
			return printJSON(cmd, map[string]any{
				"stress_level": as.Prediction.Class,
				"score":        as.Prediction.Confidence,
				"insight":      out.Text,
			})
		}

		w := cmd.OutOrStdout()
		switch {
		case out.Prediction != nil:
			fmt.Fprintln(w, theme.Text("Model estimate",
				fmt.Sprintf("%s (%.0f%%)", out.Prediction.StressLevel, out.Prediction.StressProbability*100)))
		case out.Recommendation != nil:
			fmt.Fprintln(w, theme.Text("Why", out.Recommendation.Reason))
			fmt.Fprintln(w, theme.Text("What to do", out.Recommendation.Advice))
		case out.Mode == insight.ModeChat:
			fmt.Fprintln(w, theme.Text("Reply", out.Text))
		default:
			fmt.Fprintln(w, theme.Prediction(as.Prediction))
			fmt.Fprintln(w, theme.Text("Insight", out.Text))
		}
		return nil
	},
}

func modeList() string {
	var names []string
	for _, m := range insight.Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func init() {
	addFeatureFlags(insightCmd.Flags())
	insightCmd.Flags().StringP("mode", "m", string(insight.ModeFreeTextInsight), "Insight mode")
	insightCmd.Flags().String("message", "", "Question to ask in chat mode")
}
