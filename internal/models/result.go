package models

// ResultEntry bundles the generated output, validation outcome and confidence
// score for one intent. Entries are created once per intent per pipeline run
// and never mutated afterwards.
type ResultEntry struct {
	Output    string  `json:"output"`
	Valid     bool    `json:"valid"`
	Feedback  string  `json:"feedback"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`

	// Skipped marks a deterministic substitute entry that involved no model
	// call (e.g. a query intent with no schema and no clarifications).
	Skipped bool `json:"skipped,omitempty"`

	// Degraded marks an entry produced by a fallback path rather than a
	// genuine model response, so callers can tell the two apart.
	Degraded bool `json:"degraded,omitempty"`
}

// Results maps each executed intent to its result entry. A new pipeline run
// replaces the whole map; entries are never merged across runs.
type Results map[Intent]ResultEntry

// OrderedIntents returns the intents present in the map in display order.
func (r Results) OrderedIntents() []Intent {
	var out []Intent
	for _, intent := range AllIntents {
		if _, ok := r[intent]; ok {
			out = append(out, intent)
		}
	}
	return out
}
