package rules

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/abhisek/stresslens/internal/features"
)

func vec(t *testing.T, mutate func(r *features.Raw)) features.Vector {
	t.Helper()
	r := features.Raw{
		HeartRate: 72, Steps: 5000, Calories: 2000, AZM: 35,
		RestingHR: 65, HRV: 45, SleepMinutes: 420, SleepEfficiency: 0.9,
	}
	if mutate != nil {
		mutate(&r)
	}
	v, err := features.New(r)
	if err != nil {
		t.Fatalf("features.New: %v", err)
	}
	return v
}

func TestAnalyze_Pure(t *testing.T) {
	e := NewEngine()
	v := vec(t, func(r *features.Raw) { r.HRV = 22 })

	a, err := json.Marshal(e.Analyze(v))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(e.Analyze(v))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("outputs differ:\n%s\n%s", a, b)
	}
}

func TestAnalyze_LowHRVWarning(t *testing.T) {
	e := NewEngine()

	low := e.Analyze(vec(t, func(r *features.Raw) { r.HRV = 25 }))
	if !low.HasWarning() {
		t.Fatal("hrv=25: expected low-HRV warning")
	}
	if !strings.Contains(*low.Warning, "heart rate variability") {
		t.Fatalf("unexpected warning %q", *low.Warning)
	}
	if !strings.Contains(low.Summary[0], "HRV is low") {
		t.Fatalf("summary[0] = %q", low.Summary[0])
	}

	ok := e.Analyze(vec(t, func(r *features.Raw) { r.HRV = 55 }))
	if ok.HasWarning() {
		t.Fatalf("hrv=55: unexpected warning %q", *ok.Warning)
	}
}

func TestAnalyze_HRVBoundary(t *testing.T) {
	e := NewEngine()
	if e.Analyze(vec(t, func(r *features.Raw) { r.HRV = 40 })).HasWarning() {
		t.Fatal("hrv=40 is not below the threshold")
	}
	if !e.Analyze(vec(t, func(r *features.Raw) { r.HRV = 39.9 })).HasWarning() {
		t.Fatal("hrv=39.9 should warn")
	}
}

func TestAnalyze_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *features.Raw)
		index  int
		want   string
	}{
		{"good sleep", func(r *features.Raw) { r.SleepEfficiency = 0.95 }, 1, "Great sleep efficiency (95%)"},
		{"sleep at threshold", func(r *features.Raw) { r.SleepEfficiency = 0.90 }, 1, "Great sleep efficiency"},
		{"poor sleep", func(r *features.Raw) { r.SleepEfficiency = 0.70 }, 1, "restless sleep"},
		{"elevated rhr", func(r *features.Raw) { r.RestingHR = 71 }, 2, "elevated (71 bpm)"},
		{"rhr at threshold", func(r *features.Raw) { r.RestingHR = 70 }, 2, "normal range"},
		{"active", nil, 3, "Nice work staying active"},
		{"steps at threshold", func(r *features.Raw) { r.Steps = 3000 }, 3, "Activity was light"},
		{"azm at threshold", func(r *features.Raw) { r.AZM = 30 }, 3, "Nice work staying active"},
		{"low azm", func(r *features.Raw) { r.AZM = 29 }, 3, "Activity was light"},
	}

	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := e.Analyze(vec(t, tt.mutate))
			if len(f.Summary) != 4 {
				t.Fatalf("expected 4 summary lines, got %d", len(f.Summary))
			}
			if !strings.Contains(f.Summary[tt.index], tt.want) {
				t.Fatalf("summary[%d] = %q, want substring %q", tt.index, f.Summary[tt.index], tt.want)
			}
		})
	}
}

func TestAnalyze_StaticRecommendationsAndDisclaimer(t *testing.T) {
	e := NewEngine()
	a := e.Analyze(vec(t, nil))
	b := e.Analyze(vec(t, func(r *features.Raw) { r.HRV = 10; r.Steps = 0 }))

	if len(a.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(a.Recommendations))
	}
	for i := range a.Recommendations {
		if a.Recommendations[i] != b.Recommendations[i] {
			t.Fatal("recommendations changed with input")
		}
	}
	if a.Disclaimer != Disclaimer || b.Disclaimer != Disclaimer {
		t.Fatal("missing disclaimer")
	}

	// Mutating a returned finding must not leak into later calls.
	a.Recommendations[0] = "mutated"
	if e.Analyze(vec(t, nil)).Recommendations[0] == "mutated" {
		t.Fatal("recommendations shared between findings")
	}
}

type stubCheck struct {
	id  string
	obs Observation
}

func (s stubCheck) ID() string                          { return s.id }
func (s stubCheck) Evaluate(features.Vector) Observation { return s.obs }

func TestAnalyze_HighestPriorityWarningWins(t *testing.T) {
	e := NewEngine(
		stubCheck{"a", Observation{Summary: "a", Warning: "minor", Priority: 1}},
		stubCheck{"b", Observation{Summary: "b", Warning: "major", Priority: 10}},
		stubCheck{"c", Observation{Summary: "c", Warning: "also minor", Priority: 1}},
		stubCheck{"d", Observation{Summary: "d", Warning: "tied major", Priority: 10}},
	)
	f := e.Analyze(vec(t, nil))
	if f.Warning == nil || *f.Warning != "major" {
		t.Fatalf("warning = %v, want major", f.Warning)
	}
	if strings.Join(f.Summary, ",") != "a,b,c,d" {
		t.Fatalf("summary order = %v", f.Summary)
	}
}

func TestFindingJSONShape(t *testing.T) {
	b, err := json.Marshal(NewEngine().Analyze(vec(t, nil)))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"summary", "warnings", "recommendations", "note"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if m["warnings"] != nil {
		t.Fatalf("expected null warnings, got %v", m["warnings"])
	}
}
