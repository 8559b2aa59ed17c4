package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if inspect != nil {
			inspect(payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_StopSequenceAndPrefill(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [{"type": "text", "text": "1, "}],
		"stop_reason": "stop_sequence", "stop_sequence": "2",
		"usage": {"input_tokens": 5, "output_tokens": 2}
	}`, func(p map[string]any) { seen = p })

	p := New("test-key", srv.URL, 0)
	resp, err := p.Generate(context.Background(), contract.CompletionRequest{
		Model:         "claude-test",
		Messages:      []contract.Message{contract.UserText("Count to 3")},
		System:        "You count.",
		Temperature:   contract.Float(0.5),
		MaxTokens:     50,
		StopSequences: []string{"2"},
	})
	require.NoError(t, err)

	assert.Equal(t, contract.StopSequence, resp.StopReason)
	assert.Equal(t, "2", resp.StopSequence)
	assert.Equal(t, "1, ", resp.Text())
	assert.Equal(t, int64(5), resp.Usage.InputTokens)

	require.NotNil(t, seen)
	assert.Equal(t, "claude-test", seen["model"])
	assert.Equal(t, float64(50), seen["max_tokens"])
	assert.Equal(t, 0.5, seen["temperature"])
	assert.Equal(t, []any{"2"}, seen["stop_sequences"])
	system, ok := seen["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "You count.", system[0].(map[string]any)["text"])
}

func TestGenerate_ToolUseRoundTrip(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{
		"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [
			{"type": "text", "text": "Checking the clock."},
			{"type": "tool_use", "id": "toolu_9", "name": "get_current_datetime", "input": {"date_format": "%H:%M"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`, func(p map[string]any) { seen = p })

	history := []contract.Message{
		contract.UserText("what time is it?"),
		{Role: contract.RoleAssistant, Content: []contract.ContentBlock{
			contract.ToolUseBlock("toolu_1", "get_current_datetime", json.RawMessage(`{}`)),
		}},
		{Role: contract.RoleUser, Content: []contract.ContentBlock{
			contract.ToolResultBlock("toolu_1", "error: date_format must be provided", true),
		}},
	}

	p := New("test-key", srv.URL, 0)
	resp, err := p.Generate(context.Background(), contract.CompletionRequest{
		Model:    "claude-test",
		Messages: history,
		Tools: []contract.ToolSchema{{
			Name:        "get_current_datetime",
			Description: "Returns the current date and time",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"date_format": map[string]interface{}{"type": "string"}},
				"required":   []string{},
			},
		}},
		ToolChoice: &contract.ToolChoice{Mode: contract.ToolChoiceTool, Name: "get_current_datetime"},
	})
	require.NoError(t, err)

	assert.Equal(t, contract.StopToolUse, resp.StopReason)
	uses := contract.ToolUses(resp.Content)
	require.Len(t, uses, 1)
	assert.Equal(t, "toolu_9", uses[0].ID)
	assert.JSONEq(t, `{"date_format":"%H:%M"}`, string(uses[0].Input))

	messages := seen["messages"].([]any)
	require.Len(t, messages, 3)
	result := messages[2].(map[string]any)["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_result", result["type"])
	assert.Equal(t, "toolu_1", result["tool_use_id"])
	assert.Equal(t, true, result["is_error"])

	tools := seen["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_current_datetime", tools[0].(map[string]any)["name"])
	choice := seen["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "get_current_datetime", choice["name"])
}

func TestGenerate_ErrorCarriesStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, nil)

	p := New("bad-key", srv.URL, 0)
	_, err := p.Generate(context.Background(), contract.CompletionRequest{
		Model:    "claude-test",
		Messages: []contract.Message{contract.UserText("hi")},
	})
	require.Error(t, err)

	var remote *chatErrors.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.HTTPStatus())
	assert.ErrorIs(t, chatErrors.NewDefaultErrorMapper().MapError(err), chatErrors.ErrPermissionDenied)
}

func TestBuildParams_RejectsUnknownBlock(t *testing.T) {
	_, err := buildParams(contract.CompletionRequest{
		Messages: []contract.Message{{Role: contract.RoleUser, Content: []contract.ContentBlock{{Type: "image"}}}},
	})
	assert.ErrorIs(t, err, chatErrors.ErrInvalidInput)
}

func TestBuildParams_ToolChoiceNoneDropsTools(t *testing.T) {
	params, err := buildParams(contract.CompletionRequest{
		Messages:   []contract.Message{contract.UserText("hi")},
		Tools:      []contract.ToolSchema{{Name: "x", InputSchema: map[string]interface{}{"type": "object"}}},
		ToolChoice: &contract.ToolChoice{Mode: contract.ToolChoiceNone},
	})
	require.NoError(t, err)
	assert.Empty(t, params.Tools)
	assert.Equal(t, int64(defaultMaxTokens), params.MaxTokens)
}
