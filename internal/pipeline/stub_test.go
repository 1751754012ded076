package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// stubModel is a deterministic in-process model. JSON-mode calls dispatch on
// the component's system prompt so one stub can drive the whole pipeline.
type stubModel struct {
	mu sync.Mutex

	gateResp    string
	gateErr     error
	routeResp   string
	routeErr    error
	clarifyResp string
	clarifyErr  error
	scoreResp   string
	scoreErr    error
	genResp     string
	genErr      error

	genCalls     int
	gateCalls    int
	routeCalls   int
	clarifyCalls int
	scoreCalls   int
}

func (s *stubModel) Generate(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genCalls++
	return s.genResp, s.genErr
}

func (s *stubModel) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeCalls++
	return s.routeResp, s.routeErr
}

func (s *stubModel) GenerateJSON(_ context.Context, systemPrompt, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(systemPrompt, "Content Safety Filter"):
		s.gateCalls++
		return s.gateResp, s.gateErr
	case strings.Contains(systemPrompt, "Clarification Engine"):
		s.clarifyCalls++
		return s.clarifyResp, s.clarifyErr
	case strings.Contains(systemPrompt, "Confidence Auditor"):
		s.scoreCalls++
		return s.scoreResp, s.scoreErr
	default:
		return "", nil
	}
}

// happyStub returns a stub that walks the full pipeline without tripping any
// gate.
func happyStub() *stubModel {
	return &stubModel{
		gateResp:    `{"status": "VALID"}`,
		routeResp:   "PRODUCT_ANALYTICS",
		clarifyResp: `{"needs_clarification": false, "questions": []}`,
		scoreResp:   `{"score": 0.8, "rationale": "grounded in schema"}`,
		genResp:     "Funnel definition with metrics and cohort segmentation.",
	}
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.DiscardHandler)
}
