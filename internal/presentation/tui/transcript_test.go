package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestTranscript_Print(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTranscript(&buf, nil, true)

	tr.Print(&domain.TurnResult{
		Messages: []domain.Message{
			{Content: "Hello!", Handler: "Triage Agent"},
			{Content: domain.SeatMapSentinel, Handler: "Seat Booking Agent"},
		},
		Events: []domain.Event{
			{Type: domain.EventHandoff, Content: "Triage Agent -> Seat Booking Agent"},
			{Type: domain.EventContextUpdate, Metadata: map[string]any{"changes": map[string]any{"flight_number": "FLT-123"}}},
		},
		Failed: true,
	})

	out := buf.String()
	assert.Contains(t, out, "Hello!")
	assert.Contains(t, out, "Triage Agent -> Seat Booking Agent")
	assert.Contains(t, out, "FLT-123")
	assert.Contains(t, out, "14C")
	assert.NotContains(t, out, domain.SeatMapSentinel)
	assert.Contains(t, out, "not saved")
}

func TestTranscript_QuietHidesEvents(t *testing.T) {
	var buf bytes.Buffer
	NewTranscript(&buf, func(s string) (string, error) { return "<" + s + ">", nil }, false).Print(&domain.TurnResult{
		Messages: []domain.Message{{Content: "hi", Handler: "FAQ Agent"}},
		Events:   []domain.Event{{Type: domain.EventMessage, Content: "hi"}},
	})
	assert.Contains(t, buf.String(), "<hi>")
	assert.NotContains(t, buf.String(), "message")
}
