package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHelpers(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			TextBlock("Let me check."),
			ToolUseBlock("toolu_1", "get_current_datetime", json.RawMessage(`{}`)),
			TextBlock("One moment."),
			ToolUseBlock("toolu_2", "set_reminder", json.RawMessage(`{"content":"x"}`)),
		},
	}

	assert.Equal(t, "Let me check.\nOne moment.", msg.Text())
	uses := msg.ToolUses()
	require.Len(t, uses, 2)
	assert.Equal(t, "toolu_1", uses[0].ID)
	assert.Equal(t, "set_reminder", uses[1].Name)
}

func TestCloneMessages_DoesNotAlias(t *testing.T) {
	original := []Message{UserText("hi"), AssistantText("hello")}
	clone := CloneMessages(original)

	clone[0].Content[0].Text = "changed"
	clone = append(clone, UserText("extra"))

	assert.Equal(t, "hi", original[0].Content[0].Text)
	assert.Len(t, original, 2)
	assert.Nil(t, CloneMessages(nil))
}

func TestToolSchemaRequired(t *testing.T) {
	s := ToolSchema{InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"datetime_str", 3},
	}}
	assert.Equal(t, []string{"datetime_str"}, s.Required())

	s = ToolSchema{InputSchema: map[string]interface{}{"required": []string{"a", "b"}}}
	assert.Equal(t, []string{"a", "b"}, s.Required())
	assert.Empty(t, s.Properties())
}

func TestContentBlockJSON_OmitsForeignFields(t *testing.T) {
	raw, err := json.Marshal(ToolResultBlock("toolu_1", "error: boom", true))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"tool_result","tool_use_id":"toolu_1","content":"error: boom","is_error":true}`, string(raw))
}

func TestCompletionResponseText(t *testing.T) {
	var nilResp *CompletionResponse
	assert.Equal(t, "", nilResp.Text())

	resp := &CompletionResponse{Content: []ContentBlock{TextBlock("1")}, StopReason: StopSequence}
	assert.Equal(t, "1", resp.Text())
	assert.Equal(t, RoleAssistant, resp.Message().Role)
}
