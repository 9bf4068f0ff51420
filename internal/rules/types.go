package rules

// Finding is the rule engine's output for one feature vector.
type Finding struct {
	Summary         []string `json:"summary"`
	Warning         *string  `json:"warnings"`
	Recommendations []string `json:"recommendations"`
	Disclaimer      string   `json:"note"`
}

// HasWarning reports whether a warning was selected.
func (f Finding) HasWarning() bool {
	return f.Warning != nil
}

// Observation is what a single check contributes.
type Observation struct {
	Summary string
	// Warning is optional. When several checks propose one, the highest
	// Priority wins.
	Warning  string
	Priority int
}
