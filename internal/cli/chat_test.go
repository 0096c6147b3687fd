package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_Transcript(t *testing.T) {
	eng, err := switchboard.New()
	require.NoError(t, err)

	in := strings.NewReader("I want to change my seat\n\n/graph\nWhat's on the menu for dinner tonight?\n/quit\nnever read\n")
	var out bytes.Buffer
	require.NoError(t, Chat(context.Background(), eng, in, &out, ChatOptions{Verbose: true}))

	text := out.String()
	assert.Contains(t, text, registry.SeatBookingAgent)
	assert.Contains(t, text, "14C", "seat map is drawn instead of the sentinel")
	assert.Contains(t, text, "class Seat_Booking_Agent current;")
	assert.Contains(t, text, domain.RefusalMessage)
	assert.NotContains(t, text, "never read")
}

func TestChat_JSONLines(t *testing.T) {
	eng, err := switchboard.New()
	require.NoError(t, err)

	in := strings.NewReader("Is there wifi?\nthanks\n")
	var out bytes.Buffer
	err = Chat(context.Background(), eng, in, &out, ChatOptions{JSON: true})
	assert.NoError(t, HandleExecutionError(err), "EOF ends the chat cleanly")

	dec := json.NewDecoder(&out)
	var first, second domain.TurnResult
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, registry.FAQAgent, first.CurrentHandler)
	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestChat_ResumeUnknown(t *testing.T) {
	eng, err := switchboard.New()
	require.NoError(t, err)

	var out bytes.Buffer
	err = Chat(context.Background(), eng, strings.NewReader("/state\n"), &out, ChatOptions{ConversationID: "ghost"})
	require.NoError(t, HandleExecutionError(err))
	assert.Contains(t, out.String(), "Conversation 'ghost' not found")
	assert.Contains(t, out.String(), `"current_handler": "Triage Agent"`)
}

func TestChat_CanceledContext(t *testing.T) {
	eng, err := switchboard.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	err = Chat(ctx, eng, r, &bytes.Buffer{}, ChatOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, HandleExecutionError(err))
}
