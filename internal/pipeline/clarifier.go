package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/datacopilot/internal/llm"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/schema"
)

// maxClarificationQuestions caps the question list; extras are dropped
// silently.
const maxClarificationQuestions = 3

// DatasetRequestQuestion is the question the gate guarantees whenever a
// data-dependent intent arrives without a dataset.
const DatasetRequestQuestion = "I cannot run an analysis because no dataset has been uploaded. Please upload a CSV file."

const clarifierPromptFmt = `You are a "Clarification Engine".
Your job is to decide if a request is clear enough to proceed.

### CRITICAL RULES:

1. **THE "NO DATA" GATE**
   - IF Schema is "No Schema Provided" AND the intent implies data analysis:
   - **RETURN needs_clarification: true.**
   - Question: "%s"

2. **SMART INFERENCE (Do Not Ask)**
   - IF the user mentions "churn" and you see status='churned' in the schema -> **Proceed.**
   - IF the user asks for "Pro users" and you see plan_type='Pro' -> **Proceed.**

3. **GENUINE AMBIGUITY (Ask)**
   - Only ask if a term has NO matching column or value.
   - Vague time windows ("recently", "lately") and business metrics with no
     matching column ("engagement", "churn") deserve a question.

### INPUT DATA:
- Question: %s
- Intents: %v
- Schema: %s

Output JSON: {"needs_clarification": boolean, "questions": ["String"]}`

// Clarification is the clarification gate's decision.
type Clarification struct {
	NeedsClarification bool     `json:"needs_clarification"`
	Questions          []string `json:"questions"`

	// Degraded marks the fallback decision after a call or parse failure.
	Degraded bool `json:"degraded,omitempty"`
}

// Clarifier decides, per intent set and available schema, whether more user
// input is required before generation.
type Clarifier struct {
	model  Model
	logger *slog.Logger
}

// NewClarifier creates a clarification gate backed by the given model.
func NewClarifier(model Model, logger *slog.Logger) *Clarifier {
	return &Clarifier{model: model, logger: logger}
}

// Check evaluates the clarification policy. Two rules are enforced here
// regardless of what the model returns: a data-dependent intent with no
// schema always needs clarification with the dataset request present, and the
// question list never exceeds the cap. Unlike the ambiguity gate this
// component fails closed — asking an unnecessary question is cheaper than
// generating ungrounded output.
func (c *Clarifier) Check(ctx context.Context, question string, intents []models.Intent, summary *schema.Summary) Clarification {
	missingData := summary == nil && hasDataDependent(intents)

	prompt := fmt.Sprintf(clarifierPromptFmt, DatasetRequestQuestion, question, intents, summary.Render())

	raw, err := c.model.GenerateJSON(ctx, prompt, question)
	if err != nil {
		c.logger.Warn("clarifier call failed, requiring clarification", "error", err)
		return fallbackClarification(missingData)
	}

	decision, err := llm.ParseObject[Clarification](raw)
	if err != nil {
		c.logger.Warn("clarifier output unparseable, requiring clarification", "error", err)
		return fallbackClarification(missingData)
	}

	return enforce(decision, missingData)
}

// enforce applies the server-side rules to the model's decision.
func enforce(decision Clarification, missingData bool) Clarification {
	if missingData {
		decision.NeedsClarification = true
		if !containsQuestion(decision.Questions, DatasetRequestQuestion) {
			decision.Questions = append([]string{DatasetRequestQuestion}, decision.Questions...)
		}
	}
	if len(decision.Questions) > maxClarificationQuestions {
		decision.Questions = decision.Questions[:maxClarificationQuestions]
	}
	if !decision.NeedsClarification {
		decision.Questions = nil
	}
	return decision
}

func fallbackClarification(missingData bool) Clarification {
	questions := []string{
		"Could you describe the dataset (tables and columns) the analysis should use?",
		"What time window should the analysis cover?",
	}
	if missingData {
		questions = append([]string{DatasetRequestQuestion}, questions...)
	}
	return enforce(Clarification{
		NeedsClarification: true,
		Questions:          questions,
		Degraded:           true,
	}, missingData)
}

func hasDataDependent(intents []models.Intent) bool {
	for _, intent := range intents {
		if intent.DataDependent() {
			return true
		}
	}
	return false
}

func containsQuestion(questions []string, q string) bool {
	for _, existing := range questions {
		if existing == q {
			return true
		}
	}
	return false
}
