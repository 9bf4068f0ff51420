package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/stresslens/internal/ui/theme"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the stress level for one set of metrics",
	Example: `  stresslens predict --input day.json
  stresslens predict --heart-rate 72 --steps 5000 --calories 2000 --azm 35 \
    --resting-hr 65 --hrv 45 --sleep-minutes 420 --sleep-efficiency 0.9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := readFeatures(cmd)
		if err != nil {
			return err
		}

		a, err := buildApp(cmd, buildOpts{quiet: true, offline: true})
		if err != nil {
			return err
		}
		defer closeApp(a)

		res, err := a.Classifier.Predict(v)
		if err != nil {
			return err
		}

		if wantJSON(cmd) {
			return printJSON(cmd, res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme.Prediction(res))
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Explain the metrics with the threshold rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := readFeatures(cmd)
		if err != nil {
			return err
		}

		a, err := buildApp(cmd, buildOpts{quiet: true, offline: true})
		if err != nil {
			return err
		}
		defer closeApp(a)

		f := a.Rules.Analyze(v)
		if wantJSON(cmd) {
			return printJSON(cmd, f)
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme.Finding(f))
		return nil
	},
}

func init() {
	addFeatureFlags(predictCmd.Flags())
	addFeatureFlags(analyzeCmd.Flags())
}
