package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/datacopilot/internal/config"
	"github.com/raphaelgruber/datacopilot/internal/metrics"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel drives the pipeline deterministically. JSON-mode calls dispatch on
// the component's system prompt.
type stubModel struct {
	gateResp    string
	routeResp   string
	clarifyResp string
	scoreResp   string
	genResp     string
}

func (s *stubModel) Generate(_ context.Context, _ string) (string, error) {
	return s.genResp, nil
}

func (s *stubModel) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	return s.routeResp, nil
}

func (s *stubModel) GenerateJSON(_ context.Context, systemPrompt, _ string) (string, error) {
	switch {
	case strings.Contains(systemPrompt, "Content Safety Filter"):
		return s.gateResp, nil
	case strings.Contains(systemPrompt, "Clarification Engine"):
		return s.clarifyResp, nil
	case strings.Contains(systemPrompt, "Confidence Auditor"):
		return s.scoreResp, nil
	default:
		return "", nil
	}
}

func happyStub() *stubModel {
	return &stubModel{
		gateResp:    `{"status": "VALID"}`,
		routeResp:   "PRODUCT_ANALYTICS",
		clarifyResp: `{"needs_clarification": false, "questions": []}`,
		scoreResp:   `{"score": 0.8, "rationale": "grounded"}`,
		genResp:     "Build an activation funnel with cohort metrics.",
	}
}

func newTestServer(t *testing.T, stub *stubModel) *Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	collector := metrics.NewCollector()
	controller := pipeline.NewController(stub, collector, logger)
	cfg := config.Config{
		ServerPort:     "0",
		AllowedOrigins: []string{"*"},
		SessionTTL:     time.Minute,
	}
	return New(cfg, controller, collector, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w, body := doJSON(t, h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id, ok := body["session_id"].(string)
	require.True(t, ok, "session_id missing: %v", body)
	return id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, happyStub())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()

	id := createSession(t, h)
	assert.Len(t, id, 8)

	w, body := doJSON(t, h, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["session_id"])
}

func TestUnknownSessionIs404(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/nope0000"},
		{http.MethodPost, "/api/sessions/nope0000/question"},
		{http.MethodPost, "/api/sessions/nope0000/clarify"},
		{http.MethodPost, "/api/sessions/nope0000/reset"},
	} {
		w, _ := doJSON(t, h, route.method, route.path, map[string]string{"question": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", route.method, route.path)
	}
}

func TestQuestionRequiresBody(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	w, _ := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/question", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuestionSuccess(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	w, body := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/question",
		map[string]string{"question": "Where do users drop off?"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.StatusSuccess), body["status"])

	results, ok := body["results"].(map[string]any)
	require.True(t, ok, "results missing: %v", body)
	entry, ok := results[string(models.IntentProductAnalytics)].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, entry["valid"])
	assert.Equal(t, 0.8, entry["score"])
}

func TestQuestionOffTopic(t *testing.T) {
	stub := happyStub()
	stub.gateResp = `{"status": "OFF_TOPIC", "message": "Creative writing is out of scope."}`
	s := newTestServer(t, stub)
	h := s.Handler()
	id := createSession(t, h)

	w, body := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/question",
		map[string]string{"question": "Write a poem about clouds"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.StatusOffTopic), body["status"])
	assert.NotEmpty(t, body["message"])
	assert.Nil(t, body["results"])
}

func TestClarifyWithoutPendingIs409(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	w, _ := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/clarify",
		map[string]any{"answer": "the amount column"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClarificationRoundTrip(t *testing.T) {
	stub := happyStub()
	stub.routeResp = "SQL_INVESTIGATION"
	stub.genResp = "SELECT count(*) FROM data WHERE status = 'churned'"
	s := newTestServer(t, stub)
	h := s.Handler()
	id := createSession(t, h)

	// No dataset uploaded: a query intent suspends for clarification.
	w, body := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/question",
		map[string]string{"question": "Calculate churn for Pro users"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, string(models.StatusClarificationNeeded), body["status"])
	questions, ok := body["questions"].([]any)
	require.True(t, ok)
	assert.Equal(t, pipeline.DatasetRequestQuestion, questions[0])

	// Answering resumes the run.
	w, body = doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/clarify",
		map[string]any{"answer": "plan_type has Pro/Free, status has active/churned"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.StatusSuccess), body["status"])

	results, ok := body["results"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, results, string(models.IntentSQLInvestigation))
}

func uploadCSV(t *testing.T, h http.Handler, id, csv string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "data.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/dataset", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDatasetUpload(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	w := uploadCSV(t, h, id, "plan_type,status\nPro,active\nFree,churned\n")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	sch, ok := body["schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), sch["row_count"])

	// The schema now shows up on the session.
	_, getBody := doJSON(t, h, http.MethodGet, "/api/sessions/"+id, nil)
	assert.NotNil(t, getBody["schema"])
}

func TestDatasetUploadRejectsEmptyFile(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	w := uploadCSV(t, h, id, "   \n")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDatasetUploadRequiresFileField(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	w, _ := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/dataset", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetClearsStateAndSchema(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()
	id := createSession(t, h)

	require.Equal(t, http.StatusOK, uploadCSV(t, h, id, "a,b\n1,2\n").Code)
	doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/question",
		map[string]string{"question": "Funnel analysis"})

	w, body := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["reset"])

	_, getBody := doJSON(t, h, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Nil(t, getBody["schema"])
	assert.Nil(t, getBody["results"])
}

func TestStats(t *testing.T) {
	s := newTestServer(t, happyStub())
	h := s.Handler()

	createSession(t, h)
	createSession(t, h)

	w, body := doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["sessions"])
	assert.Contains(t, body, "metrics")
}

func TestSessionSweep(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	m := NewSessionManager(10*time.Millisecond, logger)

	stale := m.Create()
	stale.UpdatedAt = time.Now().Add(-time.Minute)
	fresh := m.Create()

	removed := m.Sweep()
	assert.Equal(t, 1, removed)
	assert.Nil(t, m.Get(stale.ID))
	assert.NotNil(t, m.Get(fresh.ID))
}

func TestBroadcastDoesNotBlock(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	m := NewSessionManager(time.Minute, logger)
	session := m.Create()

	id, ch := session.Subscribe()
	defer session.Unsubscribe(id)

	// Fill past the channel buffer; extra events are dropped, not queued.
	for i := 0; i < 100; i++ {
		session.Broadcast(pipeline.StageEvent{Stage: pipeline.StageGenerating, Step: i})
	}

	received := 0
drain:
	for {
		select {
		case <-ch:
			received++
		default:
			break drain
		}
	}
	if received == 0 || received > 100 {
		t.Errorf("received %d events, want between 1 and buffer size", received)
	}
}
