package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/reasoner"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	exec := runtime.New(
		session.NewManager(memory.NewStore()),
		registry.NewSet(registry.MustAirline()),
		reasoner.NewRules(),
	)
	s := NewServer(exec, "test")
	call(t, s, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "test", "version": "1"},
		"capabilities":    map[string]any{},
	})
	return s
}

// call sends a JSON-RPC request and returns the decoded "result" member.
func call(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()
	req, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	out := s.mcpServer.HandleMessage(context.Background(), req)
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var resp struct {
		Result map[string]any `json:"result"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Nil(t, resp.Error, "rpc error for %s", method)
	return resp.Result
}

func structured[T any](t *testing.T, result map[string]any) T {
	t.Helper()
	require.NotEqual(t, true, result["isError"], "tool error: %v", result["content"])
	raw, err := json.Marshal(result["structuredContent"])
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestSendMessageAndGetConversation(t *testing.T) {
	s := newTestServer(t)

	res := structured[domain.TurnResult](t, call(t, s, "tools/call", map[string]any{
		"name":      "send_message",
		"arguments": map[string]any{"message": "Is there wifi?"},
	}))
	assert.Equal(t, registry.FAQAgent, res.CurrentHandler)
	require.Len(t, res.Messages, 1)

	snap := structured[domain.Snapshot](t, call(t, s, "tools/call", map[string]any{
		"name":      "get_conversation",
		"arguments": map[string]any{"conversation_id": res.ConversationID},
	}))
	assert.Equal(t, res.ConversationID, snap.ConversationID)
	assert.NotEmpty(t, snap.History)
}

func TestGetConversation_Unknown(t *testing.T) {
	s := newTestServer(t)

	result := call(t, s, "tools/call", map[string]any{
		"name":      "get_conversation",
		"arguments": map[string]any{"conversation_id": "missing"},
	})
	assert.Equal(t, true, result["isError"])
}

func TestAgentsResource(t *testing.T) {
	s := newTestServer(t)

	result := call(t, s, "resources/read", map[string]any{"uri": AgentsURI})
	contents, ok := result["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)

	text := contents[0].(map[string]any)["text"].(string)
	var handlers []domain.HandlerInfo
	require.NoError(t, json.Unmarshal([]byte(text), &handlers))
	assert.Len(t, handlers, 5)
}

func TestDecodeArgs(t *testing.T) {
	args, err := decodeArgs[SendMessageArgs](map[string]any{"message": "hi", "conversation_id": "c1"})
	require.NoError(t, err)
	assert.Equal(t, SendMessageArgs{ConversationID: "c1", Message: "hi"}, args)

	_, err = decodeArgs[SendMessageArgs](map[string]any{"message": 42})
	assert.Error(t, err)
}
