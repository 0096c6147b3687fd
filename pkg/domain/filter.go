package domain

// FilterOutcome is the verdict of one safety filter for one turn.
// Outcomes are created once and never mutated.
type FilterOutcome struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Input     string `json:"input"`
	Rationale string `json:"reasoning"`
	Passed    bool   `json:"passed"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// AllPassed reports whether every outcome passed.
func AllPassed(outcomes []FilterOutcome) bool {
	for _, o := range outcomes {
		if !o.Passed {
			return false
		}
	}
	return true
}

// FirstFailure returns the first failed outcome, if any.
func FirstFailure(outcomes []FilterOutcome) (FilterOutcome, bool) {
	for _, o := range outcomes {
		if !o.Passed {
			return o, true
		}
	}
	return FilterOutcome{}, false
}
