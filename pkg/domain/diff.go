package domain

// Diff calculates the changes between two records.
// It is designed to be serialized to JSON as the metadata of a context_update event.
//
// Only added, modified or cleared keys are returned. Cleared keys carry a nil value.
// If before is nil, every key of after is reported (initial load).
// Returns nil when nothing changed so callers can skip the event entirely.
func Diff(before, after Record) map[string]any {
	delta := make(map[string]any)

	// Added or Modified
	for k, newVal := range after {
		oldVal, exists := before[k]
		if !exists || oldVal != newVal {
			delta[k] = newVal
		}
	}

	// Deletions
	for k := range before {
		if _, exists := after[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// HistoryDelta returns the entries appended to history since the given length.
// History is append-only; a shorter history yields nil.
func HistoryDelta(history []Entry, since int) []Entry {
	if since < 0 || since >= len(history) {
		return nil
	}
	out := make([]Entry, len(history)-since)
	copy(out, history[since:])
	return out
}
