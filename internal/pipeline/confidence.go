package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/datacopilot/internal/llm"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/schema"
)

// maxAuditChars bounds the answer text sent for scoring.
const maxAuditChars = 7000

// FallbackScore and FallbackRationale are substituted on any transport or
// parse failure. The auditor never raises or blocks the pipeline.
const (
	FallbackScore     = 0.5
	FallbackRationale = "scoring failed"
)

const advisoryRubric = `You are a Confidence Auditor for advisory analytics answers
(business strategy, product analytics). Score how grounded the answer is in
the ACTUAL dataset schema provided, on a 0.0-1.0 scale.

Scoring criteria:
- Reward specificity tied to real columns and values from the schema.
- An answer that honestly enumerates missing information instead of guessing
  deserves a near-maximal score. Honesty is not penalized.
- Heavily penalize references to columns, tables or values that do not exist
  in the schema (near-zero).
- Generic advice that could apply to any business caps at 0.6.

Output JSON: {"score": 0.0-1.0, "rationale": "one sentence"}`

const queryRubric = `You are a Confidence Auditor for generated queries and chart code.
Score how grounded the artifact is in the ACTUAL dataset schema provided, on
a 0.0-1.0 scale.

Scoring criteria:
- Every referenced table and column must exist in the schema. Any hallucinated
  reference scores near zero.
- Reward filters and aggregations that match real column values.
- A correct refusal ("cannot answer without column X") deserves a
  near-maximal score.

Output JSON: {"score": 0.0-1.0, "rationale": "one sentence"}`

// Confidence is the auditor's verdict on one generated answer.
type Confidence struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`

	// Degraded marks the neutral fallback, not a genuine audit.
	Degraded bool `json:"degraded,omitempty"`
}

// Auditor independently scores generated answers for groundedness against
// the available schema.
type Auditor struct {
	model  Model
	logger *slog.Logger
}

// NewAuditor creates a confidence auditor backed by the given model.
func NewAuditor(model Model, logger *slog.Logger) *Auditor {
	return &Auditor{model: model, logger: logger}
}

// Score audits one answer with the intent-appropriate rubric. The result is
// always clamped into [0,1]; failures yield the neutral fallback.
func (a *Auditor) Score(ctx context.Context, question, output string, intent models.Intent, summary *schema.Summary) Confidence {
	rubric := advisoryRubric
	if intent.DataDependent() {
		rubric = queryRubric
	}

	if len(output) > maxAuditChars {
		output = output[:maxAuditChars]
	}

	payload := fmt.Sprintf("Question:\n%s\n\nDataset Schema:\n%s\n\nAnswer to score:\n%s",
		question, summary.Render(), output)

	raw, err := a.model.GenerateJSON(ctx, rubric, payload)
	if err != nil {
		a.logger.Warn("confidence call failed, using neutral score", "intent", intent, "error", err)
		return Confidence{Score: FallbackScore, Rationale: FallbackRationale, Degraded: true}
	}

	verdict, err := llm.ParseObject[Confidence](raw)
	if err != nil {
		a.logger.Warn("confidence output unparseable, using neutral score", "intent", intent, "error", err)
		return Confidence{Score: FallbackScore, Rationale: FallbackRationale, Degraded: true}
	}

	verdict.Score = clamp01(verdict.Score)
	if verdict.Rationale == "" {
		verdict.Rationale = "no rationale returned"
	}
	return verdict
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
