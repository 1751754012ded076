package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/datacopilot/internal/metrics"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/schema"
)

// fixedStages: gate, routing, clarifying. Each executed intent adds three
// more (generate, validate, score).
const fixedStages = 3

// stagesPerIntent: generate, validate, score.
const stagesPerIntent = 3

// Controller sequences the pipeline. It is re-entrant and holds no state of
// its own: the caller passes session state in and gets updated state back,
// re-invoking after each clarification round-trip. At most one model call is
// in flight per invocation.
type Controller struct {
	gate      *Gatekeeper
	router    *Router
	clarifier *Clarifier
	auditor   *Auditor
	model     Model
	registry  registry
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewController wires the pipeline components around one model client.
// collector may be nil.
func NewController(model Model, collector *metrics.Collector, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gate:      NewGatekeeper(model, logger),
		router:    NewRouter(model, logger),
		clarifier: NewClarifier(model, logger),
		auditor:   NewAuditor(model, logger),
		model:     model,
		registry:  defaultRegistry(),
		collector: collector,
		logger:    logger,
	}
}

// Run executes one pipeline invocation for the given state and returns the
// updated state. It never returns an error: every failure path inside the
// pipeline resolves to a documented fallback, and the returned Status tells
// the caller what to do next (render results, show a rejection, or collect
// clarification answers and re-invoke).
func (c *Controller) Run(ctx context.Context, state models.SessionState, summary *schema.Summary, sink StageSink) models.SessionState {
	pipelineStart := time.Now()
	defer func() {
		c.record(metrics.OpPipeline, pipelineStart)
	}()

	total := fixedStages
	step := 0

	// The gate runs on first submission only. A re-entry carrying
	// clarification answers has already passed it.
	step++
	sink.emit(StageEvent{Stage: StageGate, Step: step, Total: total})
	if state.ClarificationAnswers == "" {
		gateStart := time.Now()
		check := c.gate.Check(ctx, state.Question)
		c.record(metrics.OpGatekeeper, gateStart)

		if check.Status != models.StatusValid {
			c.logger.Info("question rejected", "status", check.Status)
			state.Status = check.Status
			state.Message = check.Message
			state.Results = nil
			return state
		}
	}

	step++
	sink.emit(StageEvent{Stage: StageRouting, Step: step, Total: total})
	routeStart := time.Now()
	intents, degraded := c.router.Classify(ctx, state.Question)
	c.record(metrics.OpRouter, routeStart)
	if degraded {
		c.logger.Warn("intent routing degraded to default", "intent", models.DefaultIntent)
	}

	if len(intents) == 1 && intents[0] == models.IntentOutOfScope {
		state.Status = models.StatusOffTopic
		state.Message = "This question is outside the data and business analytics domain."
		state.Results = nil
		return state
	}

	total = fixedStages + len(intents)*stagesPerIntent

	step++
	sink.emit(StageEvent{Stage: StageClarifying, Step: step, Total: total})
	clarifyStart := time.Now()
	clarification := c.clarifier.Check(ctx, state.Question, intents, summary)
	c.record(metrics.OpClarifier, clarifyStart)

	if clarification.NeedsClarification && !state.ProceedWithAnswers {
		state.Status = models.StatusClarificationNeeded
		state.PendingQuestions = clarification.Questions
		return state
	}

	results := make(models.Results, len(intents))
	for _, intent := range intents {
		entry, ok := c.registry[intent]
		if !ok {
			continue
		}

		step++
		sink.emit(StageEvent{Stage: StageGenerating, Detail: intent.Title(), Step: step, Total: total})

		if !entry.need.satisfied(summary != nil, state.ClarificationAnswers) {
			c.logger.Info("generator skipped, grounding missing", "intent", intent)
			results[intent] = skippedEntry()
			// Validate/score steps don't run for a skipped intent.
			step += stagesPerIntent - 1
			continue
		}

		prompt := entry.build(state.Question, summaryText(summary), state.ClarificationAnswers)

		genStart := time.Now()
		output, err := c.model.Generate(ctx, prompt)
		c.record(metrics.OpGenerate, genStart)
		if err != nil {
			c.logger.Warn("generation failed", "intent", intent, "error", err)
			results[intent] = degradedEntry(err)
			step += stagesPerIntent - 1
			continue
		}

		step++
		sink.emit(StageEvent{Stage: StageValidating, Detail: intent.Title(), Step: step, Total: total})
		valid, feedback := entry.validate(output)

		step++
		sink.emit(StageEvent{Stage: StageScoring, Detail: intent.Title(), Step: step, Total: total})
		scoreStart := time.Now()
		confidence := c.auditor.Score(ctx, state.Question, output, intent, summary)
		c.record(metrics.OpConfidence, scoreStart)

		results[intent] = models.ResultEntry{
			Output:    output,
			Valid:     valid,
			Feedback:  feedback,
			Score:     confidence.Score,
			Rationale: confidence.Rationale,
			Degraded:  confidence.Degraded,
		}
	}

	sink.emit(StageEvent{Stage: StageDone, Step: total, Total: total})

	state.Status = models.StatusSuccess
	state.Results = results
	state.PendingQuestions = nil
	return state
}

// degradedEntry substitutes for one intent when its generation call fails.
// The rest of the pipeline keeps going.
func degradedEntry(err error) models.ResultEntry {
	return models.ResultEntry{
		Output:    "Generation unavailable.",
		Valid:     false,
		Feedback:  fmt.Sprintf("generation failed: %v", err),
		Score:     0.0,
		Rationale: "no output to score",
		Degraded:  true,
	}
}

func summaryText(summary *schema.Summary) string {
	if summary == nil {
		return ""
	}
	return summary.Render()
}

func (c *Controller) record(op string, start time.Time) {
	if c.collector != nil {
		c.collector.RecordTiming(op, time.Since(start))
	}
}
