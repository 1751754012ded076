// Package pipeline sequences the answer pipeline: ambiguity gate, intent
// routing, clarification, per-intent generation, validation and confidence
// auditing. Every model-backed component recovers locally from call or parse
// failures with a documented fallback; no failure propagates out of the
// pipeline.
package pipeline

import "context"

// Model is the narrow slice of the LLM client the pipeline needs. Satisfied
// by *llm.Model; tests substitute a deterministic stub.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Stage identifies a pipeline stage for progress reporting.
type Stage string

const (
	StageGate       Stage = "gate"
	StageRouting    Stage = "routing"
	StageClarifying Stage = "clarifying"
	StageGenerating Stage = "generating"
	StageValidating Stage = "validating"
	StageScoring    Stage = "scoring"
	StageDone       Stage = "done"
)

// StageEvent reports pipeline progress to an observer (CLI progress display,
// websocket feed). Step/Total give a coarse completion fraction; Total grows
// once routing fixes the intent set.
type StageEvent struct {
	Stage  Stage  `json:"stage"`
	Detail string `json:"detail,omitempty"`
	Step   int    `json:"step"`
	Total  int    `json:"total"`
}

// StageSink receives stage events. A nil sink is valid and ignored.
type StageSink func(StageEvent)

func (s StageSink) emit(ev StageEvent) {
	if s != nil {
		s(ev)
	}
}
