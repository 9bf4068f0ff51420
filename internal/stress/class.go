package stress

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Class is an ordinal stress level. Its integer value is the class index
// used by the model artifact.
type Class int

const (
	Low Class = iota
	Moderate
	High
)

// NumClasses is the number of stress classes.
const NumClasses = 3

var classLabels = [NumClasses]string{"Low", "Moderate", "High"}

// Labels returns the canonical label set indexed by class.
func Labels() []string {
	out := make([]string, NumClasses)
	copy(out, classLabels[:])
	return out
}

// Valid reports whether c is one of the three classes.
func (c Class) Valid() bool {
	return c >= Low && c <= High
}

func (c Class) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return classLabels[c]
}

// ParseClass maps a label to its class. Matching is case-insensitive and
// "Medium", used by older model revisions, is read as Moderate.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "moderate", "medium":
		return Moderate, nil
	case "high":
		return High, nil
	}
	return 0, fmt.Errorf("unknown stress level %q", s)
}

func (c Class) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal invalid stress class %d", int(c))
	}
	return json.Marshal(c.String())
}

func (c *Class) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClass(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
