package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, execute(t, "", "version"), "switchboard version")
}

func TestAgents(t *testing.T) {
	out := execute(t, "", "agents")
	assert.Contains(t, out, "Triage Agent")
	assert.Contains(t, out, "update_seat")
}

func TestGraph(t *testing.T) {
	out := execute(t, "", "graph")
	assert.True(t, strings.HasPrefix(out, "graph TD"))
}

func TestChatAndConversationCommands(t *testing.T) {
	dir := t.TempDir()
	store := []string{"--store", "file", "--store-path", dir}

	out := execute(t, "Is there wifi on the plane?\n/quit\n", append([]string{"chat", "--json"}, store...)...)
	assert.Contains(t, out, `"current_handler":"FAQ Agent"`)

	out = execute(t, "", append([]string{"conversation", "ls"}, store...)...)
	require.Contains(t, out, "Conversations:")
	id := strings.TrimSpace(strings.TrimPrefix(strings.Split(out, "\n")[1], "- "))

	out = execute(t, "", append([]string{"conversation", "inspect", id}, store...)...)
	assert.Contains(t, out, `"conversation_id": "`+id+`"`)

	out = execute(t, "", append([]string{"conversation", "rm", id}, store...)...)
	assert.Contains(t, out, "Removed conversation '"+id+"'")

	out = execute(t, "", append([]string{"conversation", "ls"}, store...)...)
	assert.Contains(t, out, "No conversations found.")
}
