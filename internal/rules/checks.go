package rules

import (
	"fmt"

	"github.com/abhisek/stresslens/internal/features"
)

// Thresholds used by the default checks.
const (
	LowHRVMs            = 40.0
	GoodSleepEfficiency = 0.90
	MaxNormalRestingHR  = 70.0
	ActiveStepsMin      = 3000
	ActiveAZMMin        = 30.0
)

// Warning priorities. Higher wins.
const (
	PriorityLowHRV = 100
)

// Check is one deterministic threshold rule.
type Check interface {
	ID() string
	Evaluate(v features.Vector) Observation
}

// DefaultChecks returns the checks in the order their summaries appear.
func DefaultChecks() []Check {
	return []Check{
		hrvCheck{},
		sleepCheck{},
		restingHRCheck{},
		activityCheck{},
	}
}

type hrvCheck struct{}

func (hrvCheck) ID() string { return "hrv" }

func (hrvCheck) Evaluate(v features.Vector) Observation {
	if v.HRV() < LowHRVMs {
		return Observation{
			Summary:  fmt.Sprintf("Your HRV is low (%.0f ms), which can indicate elevated stress or incomplete recovery.", v.HRV()),
			Warning:  "Low heart rate variability detected. Consider taking it easy today and prioritising rest.",
			Priority: PriorityLowHRV,
		}
	}
	return Observation{
		Summary: fmt.Sprintf("Your HRV (%.0f ms) is in a healthy range.", v.HRV()),
	}
}

type sleepCheck struct{}

func (sleepCheck) ID() string { return "sleep" }

func (sleepCheck) Evaluate(v features.Vector) Observation {
	pct := v.SleepEfficiency() * 100
	if v.SleepEfficiency() < GoodSleepEfficiency {
		return Observation{
			Summary: fmt.Sprintf("Sleep efficiency was %.0f%%; restless sleep may be adding to your stress.", pct),
		}
	}
	return Observation{
		Summary: fmt.Sprintf("Great sleep efficiency (%.0f%%). Well-rested bodies handle stress better.", pct),
	}
}

type restingHRCheck struct{}

func (restingHRCheck) ID() string { return "resting_hr" }

func (restingHRCheck) Evaluate(v features.Vector) Observation {
	if v.RestingHR() > MaxNormalRestingHR {
		return Observation{
			Summary: fmt.Sprintf("Your resting heart rate is elevated (%.0f bpm).", v.RestingHR()),
		}
	}
	return Observation{
		Summary: fmt.Sprintf("Your resting heart rate (%.0f bpm) is in the normal range.", v.RestingHR()),
	}
}

type activityCheck struct{}

func (activityCheck) ID() string { return "activity" }

func (activityCheck) Evaluate(v features.Vector) Observation {
	if v.Steps() > ActiveStepsMin && v.AZM() >= ActiveAZMMin {
		return Observation{
			Summary: fmt.Sprintf("Nice work staying active: %d steps and %.0f active zone minutes.", v.Steps(), v.AZM()),
		}
	}
	return Observation{
		Summary: fmt.Sprintf("Activity was light today (%d steps, %.0f active zone minutes); a little more movement could help.", v.Steps(), v.AZM()),
	}
}
