package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// FieldError describes one missing or invalid feature.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError reports every field that failed validation, in canonical
// feature order followed by any non-feature fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Names returns the offending field names.
func (e *ValidationError) Names() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Field
	}
	return out
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// FieldErr builds a single-field ValidationError.
func FieldErr(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

type bound struct {
	min, max         float64
	minOpen, maxOpen bool
}

func (b bound) check(x float64) string {
	if b.minOpen && x <= b.min || !b.minOpen && x < b.min {
		return b.describe()
	}
	if b.maxOpen && x >= b.max || !b.maxOpen && x > b.max {
		return b.describe()
	}
	return ""
}

func (b bound) describe() string {
	lo, hi := "[", "]"
	if b.minOpen {
		lo = "("
	}
	if b.maxOpen {
		hi = ")"
	}
	if math.IsInf(b.max, 1) {
		return fmt.Sprintf("must be >= %g", b.min)
	}
	return fmt.Sprintf("must be in %s%g, %g%s", lo, b.min, b.max, hi)
}

// maxSteps is the first whole float64 that overflows int64.
const maxSteps = float64(1 << 63)

var nonNegative = bound{min: 0, max: math.Inf(1), maxOpen: true}

// bounds holds the accepted range per feature. sleep_efficiency is a
// fraction; percentages are rejected.
var bounds = map[string]bound{
	HeartRate:       {min: 30, max: 220, minOpen: true, maxOpen: true},
	Steps:           nonNegative,
	Calories:        nonNegative,
	AZM:             nonNegative,
	RestingHR:       {min: 30, max: 220, minOpen: true, maxOpen: true},
	HRV:             nonNegative,
	SleepMinutes:    nonNegative,
	SleepEfficiency: {min: 0, max: 1},
}

// Parse validates an untyped key-value payload into a Vector. Every one of
// the eight canonical keys must be present and hold a number; strings are
// never coerced. Unknown keys are ignored.
func Parse(in map[string]any) (Vector, error) {
	var (
		vals [Count]float64
		errs []FieldError
	)

	for i, name := range names {
		raw, ok := in[name]
		if !ok {
			errs = append(errs, FieldError{Field: name, Reason: "is required"})
			continue
		}
		x, err := toFloat(raw)
		if err != nil {
			errs = append(errs, FieldError{Field: name, Reason: err.Error()})
			continue
		}
		if reason := bounds[name].check(x); reason != "" {
			if name == SleepEfficiency && x > 1 && x <= 100 {
				reason += " (fraction, not percentage)"
			}
			errs = append(errs, FieldError{Field: name, Reason: reason})
			continue
		}
		if name == Steps {
			if x != math.Trunc(x) {
				errs = append(errs, FieldError{Field: name, Reason: "must be an integer"})
				continue
			}
			// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
			if x >= maxSteps {
				errs = append(errs, FieldError{Field: name, Reason: "out of range"})
				continue
			}
		}
		vals[i] = x
	}

	if len(errs) > 0 {
		return Vector{}, &ValidationError{Fields: errs}
	}

	return Vector{
		heartRate:       vals[0],
		steps:           int64(vals[1]),
		calories:        vals[2],
		azm:             vals[3],
		restingHR:       vals[4],
		hrv:             vals[5],
		sleepMinutes:    vals[6],
		sleepEfficiency: vals[7],
	}, nil
}

// toFloat accepts Go numeric kinds and json.Number.
func toFloat(v any) (float64, error) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		x = f
	case nil:
		return 0, fmt.Errorf("must not be null")
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("must be finite")
	}
	return x, nil
}
