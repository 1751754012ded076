// Package validators enforces each intent's scope contract with deterministic
// lexical checks. No validator calls a model; identical input always yields an
// identical verdict.
package validators

import (
	"regexp"
	"strings"
)

// Func checks a generated answer and returns (valid, feedback). The first
// failing rule wins.
type Func func(output string) (valid bool, feedback string)

var (
	// Trailing notes/disclaimer sections are excluded from scope checks so
	// that an honest "Note: no dataset was provided" doesn't trip them.
	notesSplitRe = regexp.MustCompile(`\n\s*(note:|notes:|disclaimer:)\s*`)

	// Explicit SQL phrases only; bare "from"/"where"/"join" appear in
	// ordinary prose too often to ban.
	sqlLeakRe = regexp.MustCompile(`\b(select\s+\*|select\s+top|group\s+by|order\s+by|inner\s+join|left\s+join|right\s+join)\b`)

	funnelArtifactRe = regexp.MustCompile(`\b(funnel breakdown|conversion funnel|cohort table|retention cohort|technical segmentation)\b`)
	budgetLeakRe     = regexp.MustCompile(`\b(allocate budget|budget allocation|invest in acquisition|invest in retention|go-to-market|gtm)\b`)
	productMarkerRe  = regexp.MustCompile(`\b(funnel|cohort|segment|segmentation)\b`)
	fencedCodeRe     = regexp.MustCompile("(?s)```.*```")
)

// core lowercases the output and drops everything from the first
// notes/disclaimer marker on.
func core(output string) string {
	low := strings.ToLower(output)
	parts := notesSplitRe.Split(low, 2)
	return parts[0]
}

// Business validates business-strategy output: no product-analytics
// artifacts, no SQL, and at least one explicit metric.
func Business(output string) (bool, string) {
	text := core(output)

	if funnelArtifactRe.MatchString(text) {
		return false, "Business Strategy should not include technical funnels or cohort tables. Keep it strategy-focused."
	}
	if strings.Contains(text, "funnel") && strings.Contains(text, "dropoff") {
		return false, "Business Strategy should not include specific funnel dropoff analysis."
	}
	if sqlLeakRe.MatchString(text) {
		return false, "Business Strategy should not include SQL or pseudo-SQL."
	}
	if !strings.Contains(text, "metric") {
		return false, "Add at least 2-3 explicit metrics to track."
	}
	return true, "Valid"
}

// Product validates product-analytics output: no budget/strategy language, no
// SQL, and at least one product artifact (funnel, cohort or segmentation).
func Product(output string) (bool, string) {
	text := core(output)

	if budgetLeakRe.MatchString(text) {
		return false, "Product Analytics should not include budget/strategy recommendations. Keep it analytics-only."
	}
	if sqlLeakRe.MatchString(text) {
		return false, "Product Analytics should not include SQL or pseudo-SQL."
	}
	if !productMarkerRe.MatchString(text) {
		return false, "Add a funnel, cohort, or segmentation approach."
	}
	return true, "Valid"
}

// SQL validates query output: it must contain a SELECT statement.
func SQL(output string) (bool, string) {
	if !strings.Contains(strings.ToLower(output), "select") {
		return false, "SQL output must include a SELECT statement."
	}
	return true, "Valid"
}

// Viz validates visualization output: a single fenced code block building a
// Plotly Express chart.
func Viz(output string) (bool, string) {
	low := strings.ToLower(output)
	if !fencedCodeRe.MatchString(low) {
		return false, "Visualization output must be a fenced code block."
	}
	if !strings.Contains(low, "px.") {
		return false, "Visualization code must build a chart with Plotly Express (px)."
	}
	return true, "Valid"
}
