package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abhisek/stresslens/internal/features"
)

// featureFlags maps each feature to its command-line flag.
var featureFlags = map[string]string{
	features.HeartRate:       "heart-rate",
	features.Steps:           "steps",
	features.Calories:        "calories",
	features.AZM:             "azm",
	features.RestingHR:       "resting-hr",
	features.HRV:             "hrv",
	features.SleepMinutes:    "sleep-minutes",
	features.SleepEfficiency: "sleep-efficiency",
}

// addFeatureFlags registers the input flags shared by predict, analyze and
// insight.
func addFeatureFlags(fs *pflag.FlagSet) {
	fs.StringP("input", "i", "", `JSON file with the feature payload ("-" for stdin)`)
	fs.Bool("json", false, "Print JSON instead of formatted output")
	fs.Float64(featureFlags[features.HeartRate], 0, "Heart rate (bpm)")
	fs.Int64(featureFlags[features.Steps], 0, "Step count")
	fs.Float64(featureFlags[features.Calories], 0, "Calories burned (kcal)")
	fs.Float64(featureFlags[features.AZM], 0, "Active zone minutes")
	fs.Float64(featureFlags[features.RestingHR], 0, "Resting heart rate (bpm)")
	fs.Float64(featureFlags[features.HRV], 0, "Heart rate variability (ms)")
	fs.Float64(featureFlags[features.SleepMinutes], 0, "Minutes asleep")
	fs.Float64(featureFlags[features.SleepEfficiency], 0, "Sleep efficiency as a fraction (0-1)")
}

// readFeatures builds a vector from --input or from the individual flags.
// Flags that were not given are left out so validation names them.
func readFeatures(cmd *cobra.Command) (features.Vector, map[string]any, error) {
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		body, err := readPayload(cmd, path)
		if err != nil {
			return features.Vector{}, nil, err
		}
		v, err := features.Parse(body)
		return v, body, err
	}

	body := make(map[string]any, features.Count)
	for _, name := range features.Names() {
		flag := featureFlags[name]
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if name == features.Steps {
			n, _ := cmd.Flags().GetInt64(flag)
			body[name] = n
			continue
		}
		x, _ := cmd.Flags().GetFloat64(flag)
		body[name] = x
	}
	v, err := features.Parse(body)
	return v, body, err
}

func readPayload(cmd *cobra.Command, path string) (map[string]any, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return body, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func wantJSON(cmd *cobra.Command) bool {
	b, _ := cmd.Flags().GetBool("json")
	return b
}
