package insight

import (
	"github.com/abhisek/stresslens/internal/features"
	"github.com/abhisek/stresslens/internal/rules"
	"github.com/abhisek/stresslens/internal/stress"
)

// Mode selects the prompt and the expected response shape.
type Mode string

const (
	// ModeChat answers a free-form user message about the features.
	ModeChat Mode = "chat"
	// ModeStructuredPrediction asks the model for its own stress estimate
	// as {stress_level, stress_probability}.
	ModeStructuredPrediction Mode = "structured_prediction"
	// ModeStructuredRecommendation asks for {reason, advice}.
	ModeStructuredRecommendation Mode = "structured_recommendation"
	// ModeFreeTextInsight asks for a short narrative explanation.
	ModeFreeTextInsight Mode = "free_text_insight"
)

// Modes lists every supported mode.
func Modes() []Mode {
	return []Mode{ModeChat, ModeStructuredPrediction, ModeStructuredRecommendation, ModeFreeTextInsight}
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeStructuredPrediction, ModeStructuredRecommendation, ModeFreeTextInsight:
		return true
	}
	return false
}

// Structured reports whether the mode expects JSON output.
func (m Mode) Structured() bool {
	return m == ModeStructuredPrediction || m == ModeStructuredRecommendation
}

// Input is everything a single composition may draw on. Prediction and
// Finding are optional; Message is required in chat mode only.
type Input struct {
	Features   features.Vector
	Prediction *stress.Result
	Finding    *rules.Finding
	Mode       Mode
	Message    string
}

// GeneratedPrediction is the model's own stress estimate.
type GeneratedPrediction struct {
	StressLevel       stress.Class `json:"stress_level"`
	StressProbability float64      `json:"stress_probability"`
}

// GeneratedRecommendation is a model-written explanation and suggestion.
type GeneratedRecommendation struct {
	Reason string `json:"reason"`
	Advice string `json:"advice"`
}

// Insight is the result of one composition. Exactly one of Text,
// Prediction and Recommendation is set, depending on Mode.
type Insight struct {
	Mode           Mode
	Text           string
	Prediction     *GeneratedPrediction
	Recommendation *GeneratedRecommendation
	Model          string
}
