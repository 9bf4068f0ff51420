package features

import "fmt"

// Canonical feature names, in the order the classifier artifact was trained on.
const (
	HeartRate       = "heart_rate"
	Steps           = "steps"
	Calories        = "calories"
	AZM             = "azm"
	RestingHR       = "resting_hr"
	HRV             = "hrv"
	SleepMinutes    = "sleep_minutes"
	SleepEfficiency = "sleep_efficiency"
)

// Count is the number of features in a Vector.
const Count = 8

var names = [Count]string{
	HeartRate,
	Steps,
	Calories,
	AZM,
	RestingHR,
	HRV,
	SleepMinutes,
	SleepEfficiency,
}

// Names returns the canonical feature order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Index returns the position of name in the canonical order, or -1.
func Index(name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// Vector is one validated physiological snapshot. The zero value is not
// meaningful; build one with Parse or New.
type Vector struct {
	heartRate       float64
	steps           int64
	calories        float64
	azm             float64
	restingHR       float64
	hrv             float64
	sleepMinutes    float64
	sleepEfficiency float64
}

// Raw holds unvalidated feature values keyed by field. It exists so callers
// with typed data (CLI flags, tests) can go through the same checks as
// decoded JSON.
type Raw struct {
	HeartRate       float64
	Steps           int64
	Calories        float64
	AZM             float64
	RestingHR       float64
	HRV             float64
	SleepMinutes    float64
	SleepEfficiency float64
}

// New validates typed values and returns a Vector.
func New(r Raw) (Vector, error) {
	return Parse(map[string]any{
		HeartRate:       r.HeartRate,
		Steps:           r.Steps,
		Calories:        r.Calories,
		AZM:             r.AZM,
		RestingHR:       r.RestingHR,
		HRV:             r.HRV,
		SleepMinutes:    r.SleepMinutes,
		SleepEfficiency: r.SleepEfficiency,
	})
}

func (v Vector) HeartRate() float64       { return v.heartRate }
func (v Vector) Steps() int64             { return v.steps }
func (v Vector) Calories() float64        { return v.calories }
func (v Vector) AZM() float64             { return v.azm }
func (v Vector) RestingHR() float64       { return v.restingHR }
func (v Vector) HRV() float64             { return v.hrv }
func (v Vector) SleepMinutes() float64    { return v.sleepMinutes }
func (v Vector) SleepEfficiency() float64 { return v.sleepEfficiency }

// Values returns the features as a fresh slice in canonical order.
func (v Vector) Values() []float64 {
	return []float64{
		v.heartRate,
		float64(v.steps),
		v.calories,
		v.azm,
		v.restingHR,
		v.hrv,
		v.sleepMinutes,
		v.sleepEfficiency,
	}
}

// Map returns the features keyed by their wire names.
func (v Vector) Map() map[string]any {
	return map[string]any{
		HeartRate:       v.heartRate,
		Steps:           v.steps,
		Calories:        v.calories,
		AZM:             v.azm,
		RestingHR:       v.restingHR,
		HRV:             v.hrv,
		SleepMinutes:    v.sleepMinutes,
		SleepEfficiency: v.sleepEfficiency,
	}
}

func (v Vector) String() string {
	return fmt.Sprintf("hr=%.0f steps=%d kcal=%.0f azm=%.0f rhr=%.0f hrv=%.1f sleep=%.0fm eff=%.2f",
		v.heartRate, v.steps, v.calories, v.azm, v.restingHR, v.hrv, v.sleepMinutes, v.sleepEfficiency)
}
