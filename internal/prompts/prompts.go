// Package prompts builds the per-intent generation prompts. Each builder is a
// pure function of (question, schema text, clarification text); the scope
// contracts keep the intents mutually exclusive.
package prompts

import (
	"fmt"
	"strings"
)

func schemaSection(schemaText string) string {
	if schemaText == "" {
		return ""
	}
	return fmt.Sprintf("\nDataset Schema:\n%s", schemaText)
}

func clarificationSection(clarifications string) string {
	if clarifications == "" {
		return ""
	}
	return fmt.Sprintf("\nUser Clarifications:\n%s", clarifications)
}

// Business builds the business-strategy prompt. Strategy output must stay in
// decision framing and levers: no funnels, no cohorts, no SQL.
func Business(question, schemaText, clarifications string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a BUSINESS STRATEGY analyst.

SCOPE (very important):
- Provide ONLY business strategy: decision framing, unit economics, KPI tradeoffs, and concrete next steps.
- DO NOT include product analytics deliverables (funnels, cohorts, segmentation).
- DO NOT write SQL or pseudo-SQL.
- DO NOT mention conflicts between tasks or comment on instructions.
- If key information is missing, explicitly list what's missing instead of guessing.
%s%s

Question:
%s

Output format:
1) Decision framing (2-4 sentences)
2) Key metrics & levers (bullets)
3) Recommendation (acquisition vs retention) with rationale (bullets)
4) 3 concrete next steps (bullets)
5) Missing information needed (bullets, if any)
`, schemaSection(schemaText), clarificationSection(clarifications), question))
}

// Product builds the product-analytics prompt: hypotheses, metrics, funnels,
// cohorts and experiments, without strategy or SQL.
func Product(question, schemaText, clarifications string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a PRODUCT ANALYTICS analyst.

SCOPE (very important):
- Provide ONLY product analytics: hypotheses, metrics, funnel definition, cohorts, segmentation, experiments.
- DO NOT provide budgeting/strategy recommendations (e.g., "invest in acquisition vs retention").
- DO NOT write SQL or pseudo-SQL.
- DO NOT mention conflicts between tasks or comment on instructions.
- If key information is missing, explicitly list what's missing instead of guessing.
%s%s

Question:
%s

Output format:
- Hypotheses (3-5 bullets)
- Metrics (bullets)
- Funnel definition (stages + how measured)
- Cohort + segmentation plan
- Experiments / next steps
- Missing information needed (bullets, if any)
`, schemaSection(schemaText), clarificationSection(clarifications), question))
}

// SQL builds the query prompt. Queries must be grounded strictly in the
// provided schema's table and column names.
func SQL(question, schemaText, clarifications string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a senior analytics engineer.

Dataset Schema:
%s%s

Task:
Write SQL to answer:
%s

Requirements:
- Use CTEs where helpful
- Do NOT hallucinate tables/columns not present in schema
- Include brief validation notes at the end
Return only SQL + short validation notes (no long prose).
`, schemaText, clarificationSection(clarifications), question))
}

// Viz builds the visualization prompt. The generated code is returned to the
// caller for display; it is never executed by this process.
func Viz(question, schemaText, clarifications string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a Python Data Visualization Expert.
Dataset Schema:
%s%s

Task: Generate Python code using Plotly to answer: %s

Requirements:
1. Assume the dataframe is already loaded as `+"`df`"+`.
2. Use Plotly Express (`+"`px`"+`).
3. Set the chart title and labels clearly.
4. Output ONLY the Python code block wrapped in triple backticks.
5. Do not explain the code.
`, schemaText, clarificationSection(clarifications), question))
}
