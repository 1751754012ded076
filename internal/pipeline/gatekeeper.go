package pipeline

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/datacopilot/internal/llm"
	"github.com/raphaelgruber/datacopilot/internal/models"
)

const gatekeeperPrompt = `You are a Content Safety Filter.
Your job is to screen user inputs for OFF_TOPIC or AMBIGUOUS content.

1. **OFF_TOPIC**: Requests unrelated to data analytics, business, SQL, or python. (e.g. "Write a poem", "Code snake game").
2. **AMBIGUOUS**: Single words like "Why?" or "How?" with no context.
3. **VALID**: Any data-related request.

Output JSON: {"status": "VALID" | "OFF_TOPIC" | "AMBIGUOUS", "message": "Reason"}`

// GateResult is the ambiguity gate's verdict on a raw question.
type GateResult struct {
	Status  models.Status
	Message string

	// Degraded marks the fail-open fallback, not a genuine verdict.
	Degraded bool
}

// Gatekeeper decides whether a question is answerable at all before any paid
// work proceeds.
type Gatekeeper struct {
	model  Model
	logger *slog.Logger
}

// NewGatekeeper creates an ambiguity gate backed by the given model.
func NewGatekeeper(model Model, logger *slog.Logger) *Gatekeeper {
	return &Gatekeeper{model: model, logger: logger}
}

type gateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Check screens a question. The gate fails open: blocking a legitimate
// request is worse than letting a bad one through to downstream checks, so a
// call or parse failure returns VALID.
func (g *Gatekeeper) Check(ctx context.Context, question string) GateResult {
	failOpen := GateResult{Status: models.StatusValid, Degraded: true}

	raw, err := g.model.GenerateJSON(ctx, gatekeeperPrompt, question)
	if err != nil {
		g.logger.Warn("gatekeeper call failed, failing open", "error", err)
		return failOpen
	}

	resp, err := llm.ParseObject[gateResponse](raw)
	if err != nil {
		g.logger.Warn("gatekeeper output unparseable, failing open", "error", err)
		return failOpen
	}

	switch models.Status(resp.Status) {
	case models.StatusOffTopic:
		return GateResult{Status: models.StatusOffTopic, Message: messageOr(resp.Message, "This question is outside the data and business analytics domain.")}
	case models.StatusAmbiguous:
		return GateResult{Status: models.StatusAmbiguous, Message: messageOr(resp.Message, "The question is too vague to answer. Name a metric, table, or time range.")}
	case models.StatusValid:
		return GateResult{Status: models.StatusValid}
	default:
		g.logger.Warn("gatekeeper returned unknown status, failing open", "status", resp.Status)
		return failOpen
	}
}

// messageOr guarantees the non-empty message the rejection statuses require.
func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
