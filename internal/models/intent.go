// Package models defines the data model for the copilot pipeline.
package models

import "strings"

// Intent is a fixed-set category label describing what kind of analysis a
// question requires. The set is closed: values are defined here and model
// output is parsed against it, never extended at runtime.
type Intent string

const (
	IntentBusinessStrategy Intent = "BUSINESS_STRATEGY"
	IntentProductAnalytics Intent = "PRODUCT_ANALYTICS"
	IntentSQLInvestigation Intent = "SQL_INVESTIGATION"
	IntentVisualization    Intent = "VISUALIZATION"

	// IntentOutOfScope is a sentinel. It takes precedence over any other
	// labels and halts the pipeline with a scope rejection.
	IntentOutOfScope Intent = "OUT_OF_SCOPE"
)

// AllIntents lists the runnable intents in display order.
var AllIntents = []Intent{
	IntentBusinessStrategy,
	IntentProductAnalytics,
	IntentSQLInvestigation,
	IntentVisualization,
}

// DefaultIntent applies when classification yields nothing usable, so the
// pipeline always attempts to produce something.
const DefaultIntent = IntentProductAnalytics

// ParseIntent maps a raw label to an Intent. Labels outside the fixed set
// (including OUT_OF_SCOPE, which is handled separately) report ok=false.
func ParseIntent(s string) (Intent, bool) {
	label := Intent(strings.ToUpper(strings.TrimSpace(s)))
	for _, intent := range AllIntents {
		if label == intent {
			return intent, true
		}
	}
	return "", false
}

// DataDependent reports whether the intent requires row-level or column-level
// grounding in an uploaded dataset.
func (i Intent) DataDependent() bool {
	return i == IntentSQLInvestigation || i == IntentVisualization
}

// Title returns a human-readable form, e.g. "Business Strategy".
func (i Intent) Title() string {
	words := strings.Split(strings.ToLower(string(i)), "_")
	for n, w := range words {
		if w == "sql" {
			words[n] = "SQL"
			continue
		}
		if len(w) > 0 {
			words[n] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
