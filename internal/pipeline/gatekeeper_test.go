package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/datacopilot/internal/models"
)

func TestGatekeeperCheck(t *testing.T) {
	tests := []struct {
		name         string
		resp         string
		err          error
		wantStatus   models.Status
		wantDegraded bool
		wantMessage  bool
	}{
		{
			name:       "valid question",
			resp:       `{"status": "VALID"}`,
			wantStatus: models.StatusValid,
		},
		{
			name:        "off topic with reason",
			resp:        `{"status": "OFF_TOPIC", "message": "Creative writing request"}`,
			wantStatus:  models.StatusOffTopic,
			wantMessage: true,
		},
		{
			name:        "ambiguous without message gets fallback message",
			resp:        `{"status": "AMBIGUOUS"}`,
			wantStatus:  models.StatusAmbiguous,
			wantMessage: true,
		},
		{
			name:       "fenced JSON tolerated",
			resp:       "```json\n{\"status\": \"OFF_TOPIC\", \"message\": \"poem\"}\n```",
			wantStatus: models.StatusOffTopic,

			wantMessage: true,
		},
		{
			name:         "transport failure fails open",
			err:          errors.New("connection refused"),
			wantStatus:   models.StatusValid,
			wantDegraded: true,
		},
		{
			name:         "unparseable output fails open",
			resp:         "I think this is fine",
			wantStatus:   models.StatusValid,
			wantDegraded: true,
		},
		{
			name:         "unknown status fails open",
			resp:         `{"status": "MAYBE"}`,
			wantStatus:   models.StatusValid,
			wantDegraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubModel{gateResp: tt.resp, gateErr: tt.err}
			gate := NewGatekeeper(stub, testLogger(t))

			got := gate.Check(context.Background(), "some question")
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.Degraded != tt.wantDegraded {
				t.Errorf("Degraded = %v, want %v", got.Degraded, tt.wantDegraded)
			}
			if tt.wantMessage && got.Message == "" {
				t.Errorf("expected non-empty message for %s", got.Status)
			}
		})
	}
}
