package insight

import (
	"github.com/abhisek/stresslens/internal/llm"
	"github.com/abhisek/stresslens/internal/stress"
)

// PredictionSchema defines the JSON schema for a generated stress estimate.
var PredictionSchema = &llm.Schema{
	Name:        "stress-estimate",
	Description: "The model's estimate of the user's stress level",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"stress_level": map[string]any{
				"type":        "string",
				"enum":        labelsAny(),
				"description": "Estimated stress level",
			},
			"stress_probability": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "Confidence in the estimate, between 0 and 1",
			},
		},
		"required":             []any{"stress_level", "stress_probability"},
		"additionalProperties": false,
	},
}

// RecommendationSchema defines the JSON schema for a generated recommendation.
var RecommendationSchema = &llm.Schema{
	Name:        "stress-recommendation",
	Description: "A short explanation of the stress level and one concrete suggestion",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Why the metrics point to this stress level (1-2 sentences)",
			},
			"advice": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "One actionable suggestion (1-2 sentences)",
			},
		},
		"required":             []any{"reason", "advice"},
		"additionalProperties": false,
	},
}

func labelsAny() []any {
	labels := stress.Labels()
	out := make([]any, len(labels))
	for i, l := range labels {
		out[i] = l
	}
	return out
}

func schemaFor(m Mode) *llm.Schema {
	switch m {
	case ModeStructuredPrediction:
		return PredictionSchema
	case ModeStructuredRecommendation:
		return RecommendationSchema
	}
	return nil
}
