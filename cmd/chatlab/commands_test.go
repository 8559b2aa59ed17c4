package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptInvoker struct {
	mu        sync.Mutex
	responses []*contract.CompletionResponse
	requests  []contract.CompletionRequest
}

func (s *scriptInvoker) Chat(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func (s *scriptInvoker) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	resp, err := s.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, onText(resp.Text())
}

// runCommand executes the root command against an isolated home directory.
func runCommand(t *testing.T, inv *scriptInvoker, args ...string) (string, string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CHATLAB_ENV_FILE", filepath.Join(home, "missing.env"))
	t.Setenv("ANTHROPIC_API_KEY", "")

	if inv != nil {
		invokerOverride = inv
	}
	cfg = nil
	t.Cleanup(func() {
		invokerOverride = nil
		cfg = nil
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func textReply(text, stop string) *contract.CompletionResponse {
	return &contract.CompletionResponse{Content: []contract.ContentBlock{contract.TextBlock(text)}, StopReason: stop}
}

func TestAskCmd_PrefillAndStop(t *testing.T) {
	inv := &scriptInvoker{responses: []*contract.CompletionResponse{textReply(" 1, 2, ", contract.StopSequence)}}

	out, _, err := runCommand(t, inv, "ask", "--prefill", "Counting:", "--stop", "3", "--temperature", "0.2", "Count to 3")
	require.NoError(t, err)

	assert.Equal(t, "Counting: 1, 2, \n", out)
	req := inv.requests[0]
	assert.Equal(t, []string{"3"}, req.StopSequences)
	assert.Equal(t, 0.2, *req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "Counting:", req.Messages[1].Text())
}

func TestAgentCmd_ToolLoop(t *testing.T) {
	inv := &scriptInvoker{responses: []*contract.CompletionResponse{
		{
			Content: []contract.ContentBlock{contract.ToolUseBlock("toolu_1", "set_reminder",
				json.RawMessage(`{"content": "Taxes are due", "timestamp": "2025-01-01T08:00:00"}`))},
			StopReason: contract.StopToolUse,
		},
		textReply("Both reminders are set.", contract.StopEndTurn),
	}}

	out, stderr, err := runCommand(t, inv, "agent", "Remind me")
	require.NoError(t, err)

	assert.Equal(t, "Both reminders are set.\n", out)
	assert.Contains(t, stderr, "-> set_reminder")
	assert.Contains(t, stderr, "(2 rounds")

	require.Len(t, inv.requests, 2)
	names := make([]string, 0, len(inv.requests[0].Tools))
	for _, tool := range inv.requests[0].Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, defaultAgentTools, names)
	results := inv.requests[1].Messages[2]
	require.Len(t, results.Content, 1)
	assert.False(t, results.Content[0].IsError, results.Content[0].Content)
}

func TestToolsCmd_JSON(t *testing.T) {
	out, _, err := runCommand(t, nil, "tools", "--output", "json")
	require.NoError(t, err)

	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 6)
}

func TestConfigViewCmd_MasksKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai-secret-value")
	out, _, err := runCommand(t, nil, "config", "view")
	require.NoError(t, err)

	assert.Contains(t, out, "max_rounds: 10")
	assert.NotContains(t, out, "sk-openai-secret-value")
}
