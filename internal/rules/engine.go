package rules

import (
	"slices"

	"github.com/abhisek/stresslens/internal/features"
)

// Disclaimer is attached to every finding.
const Disclaimer = "These insights are generated from wearable data and general wellness guidelines. They are not medical advice; consult a healthcare professional if you have concerns."

var defaultRecommendations = []string{
	"Try a 5-minute box breathing exercise: inhale 4s, hold 4s, exhale 4s, hold 4s.",
	"Set aside 10 minutes for mindfulness or a relaxation practice.",
	"Take a short 10–15 minute walk, outdoors if you can.",
}

// DefaultRecommendations returns the static recommendation list.
func DefaultRecommendations() []string {
	return slices.Clone(defaultRecommendations)
}

// Engine runs threshold checks over a feature vector. It never consults the
// classifier and is safe for concurrent use.
type Engine struct {
	checks []Check
}

// NewEngine builds an engine with the given checks, or DefaultChecks when
// none are given.
func NewEngine(checks ...Check) *Engine {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}
	return &Engine{checks: slices.Clone(checks)}
}

// Analyze evaluates every check in order. Output depends only on v.
func (e *Engine) Analyze(v features.Vector) Finding {
	f := Finding{
		Summary:         make([]string, 0, len(e.checks)),
		Recommendations: DefaultRecommendations(),
		Disclaimer:      Disclaimer,
	}

	var (
		warning  string
		priority int
	)
	for _, c := range e.checks {
		obs := c.Evaluate(v)
		if obs.Summary != "" {
			f.Summary = append(f.Summary, obs.Summary)
		}
		// Strictly greater: on equal priority the earlier check keeps the slot.
		if obs.Warning != "" && (warning == "" || obs.Priority > priority) {
			warning, priority = obs.Warning, obs.Priority
		}
	}
	if warning != "" {
		f.Warning = &warning
	}
	return f
}
