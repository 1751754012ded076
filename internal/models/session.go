package models

// Status is the code handed to the presentation layer after a controller
// invocation.
type Status string

const (
	StatusValid               Status = "VALID"
	StatusOffTopic            Status = "OFF_TOPIC"
	StatusAmbiguous           Status = "AMBIGUOUS"
	StatusClarificationNeeded Status = "CLARIFICATION_NEEDED"
	StatusSuccess             Status = "SUCCESS"
)

// Terminal reports whether the status ends the current submission.
func (s Status) Terminal() bool {
	return s == StatusOffTopic || s == StatusAmbiguous || s == StatusSuccess
}

// SessionState is the explicit, serializable state passed into and returned
// from the pipeline controller on every invocation. The controller never keeps
// hidden state between calls: a clarification round-trip works by the caller
// re-invoking with the same question and updated answers.
type SessionState struct {
	// Question is the free-text question pending an answer.
	Question string `json:"question"`

	// ClarificationAnswers accumulates the free-text answers the user has
	// supplied so far, newline-joined. Empty until the first round-trip.
	ClarificationAnswers string `json:"clarification_answers"`

	// ProceedWithAnswers is set when the user opts to continue despite an
	// open clarification request.
	ProceedWithAnswers bool `json:"proceed_with_answers"`

	// PendingQuestions holds the clarification questions returned by the
	// last invocation, when Status is CLARIFICATION_NEEDED.
	PendingQuestions []string `json:"pending_questions,omitempty"`

	// Message carries the human-readable reason for OFF_TOPIC or AMBIGUOUS.
	Message string `json:"message,omitempty"`

	// Results is the most recent completed result mapping.
	Results Results `json:"results,omitempty"`

	Status Status `json:"status,omitempty"`
}

// NewSession returns the initial state for a fresh question.
func NewSession(question string) SessionState {
	return SessionState{Question: question}
}

// AddClarification appends a clarification answer.
func (s *SessionState) AddClarification(answer string) {
	if answer == "" {
		return
	}
	if s.ClarificationAnswers == "" {
		s.ClarificationAnswers = answer
		return
	}
	s.ClarificationAnswers += "\n" + answer
}

// Reset discards all session state unconditionally.
func (s *SessionState) Reset() {
	*s = SessionState{}
}
