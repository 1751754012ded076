package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/pipeline"
	"github.com/raphaelgruber/datacopilot/internal/schema"
)

// pipelineResponse is the envelope handed to the presentation layer: a status
// code plus the payload that status calls for.
type pipelineResponse struct {
	SessionID string          `json:"session_id"`
	Status    models.Status   `json:"status"`
	Message   string          `json:"message,omitempty"`
	Questions []string        `json:"questions,omitempty"`
	Results   results         `json:"results,omitempty"`
	Schema    *schema.Summary `json:"schema,omitempty"`
	Order     []models.Intent `json:"intent_order,omitempty"`
}

type results map[models.Intent]models.ResultEntry

func toResponse(id string, state models.SessionState, summary *schema.Summary) pipelineResponse {
	resp := pipelineResponse{
		SessionID: id,
		Status:    state.Status,
		Message:   state.Message,
		Schema:    summary,
	}
	switch state.Status {
	case models.StatusClarificationNeeded:
		resp.Questions = state.PendingQuestions
	case models.StatusSuccess:
		resp.Results = results(state.Results)
		resp.Order = state.Results.OrderedIntents()
	}
	return resp
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleStats(c *gin.Context) {
	snap := s.collector.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"sessions": s.sessions.Count(),
		"metrics":  snap,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	session := s.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID})
}

// lookup resolves the :id param, writing the 404 itself on a miss.
func (s *Server) lookup(c *gin.Context) *Session {
	session := s.sessions.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return nil
	}
	return session
}

func (s *Server) handleGetSession(c *gin.Context) {
	session := s.lookup(c)
	if session == nil {
		return
	}
	session.Lock()
	resp := toResponse(session.ID, session.State, session.Summary)
	session.Unlock()
	c.JSON(http.StatusOK, resp)
}

type questionRequest struct {
	Question string `json:"question" binding:"required"`
}

// handleQuestion starts a fresh pipeline run. Submitting a new question
// resets accumulated clarification state.
func (s *Server) handleQuestion(c *gin.Context) {
	session := s.lookup(c)
	if session == nil {
		return
	}

	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	session.Lock()
	defer session.Unlock()

	session.State = models.NewSession(req.Question)
	session.State = s.controller.Run(c.Request.Context(), session.State, session.Summary, s.stageSink(session))
	s.sessions.Touch(session)

	c.JSON(http.StatusOK, toResponse(session.ID, session.State, session.Summary))
}

type clarifyRequest struct {
	Answer  string `json:"answer"`
	Proceed bool   `json:"proceed"`
}

// handleClarify resumes a suspended pipeline with new clarification input.
// The pending question is resubmitted carrying the accumulated answers.
func (s *Server) handleClarify(c *gin.Context) {
	session := s.lookup(c)
	if session == nil {
		return
	}

	var req clarifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clarify request"})
		return
	}

	session.Lock()
	defer session.Unlock()

	if session.State.Status != models.StatusClarificationNeeded {
		c.JSON(http.StatusConflict, gin.H{"error": "no clarification pending"})
		return
	}

	session.State.AddClarification(req.Answer)
	if req.Proceed || req.Answer != "" {
		session.State.ProceedWithAnswers = true
	}

	session.State = s.controller.Run(c.Request.Context(), session.State, session.Summary, s.stageSink(session))
	s.sessions.Touch(session)

	c.JSON(http.StatusOK, toResponse(session.ID, session.State, session.Summary))
}

// handleDataset accepts a multipart CSV upload and derives the schema
// summary for the session.
func (s *Server) handleDataset(c *gin.Context) {
	session := s.lookup(c)
	if session == nil {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	table, err := schema.Load(f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	summary := schema.Summarize(table)

	session.Lock()
	session.Summary = summary
	session.Unlock()
	s.sessions.Touch(session)

	s.logger.Info("dataset uploaded", "session_id", session.ID, "rows", summary.RowCount, "columns", len(summary.Columns))
	c.JSON(http.StatusOK, gin.H{"schema": summary})
}

func (s *Server) handleReset(c *gin.Context) {
	session := s.lookup(c)
	if session == nil {
		return
	}

	session.Lock()
	session.State.Reset()
	session.Summary = nil
	session.Unlock()
	s.sessions.Touch(session)

	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "reset": true})
}

// stageSink broadcasts pipeline stage events to the session's websocket
// subscribers.
func (s *Server) stageSink(session *Session) pipeline.StageSink {
	return func(ev pipeline.StageEvent) {
		session.Broadcast(ev)
	}
}
