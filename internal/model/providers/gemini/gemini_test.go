package gemini

import (
	"encoding/json"
	"testing"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildRequest_FunctionResponseUsesToolName(t *testing.T) {
	contents, config, err := buildRequest(contract.CompletionRequest{
		System:      "sys",
		Temperature: contract.Float(0),
		MaxTokens:   100,
		Messages: []contract.Message{
			contract.UserText("time?"),
			{Role: contract.RoleAssistant, Content: []contract.ContentBlock{
				contract.ToolUseBlock("call_1", "get_current_datetime", json.RawMessage(`{"date_format":"%H"}`)),
			}},
			{Role: contract.RoleUser, Content: []contract.ContentBlock{
				contract.ToolResultBlock("call_1", "14", false),
			}},
		},
		Tools:      []contract.ToolSchema{{Name: "get_current_datetime", InputSchema: map[string]interface{}{"type": "object"}}},
		ToolChoice: &contract.ToolChoice{Mode: contract.ToolChoiceTool, Name: "get_current_datetime"},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	call := contents[1].Parts[0].FunctionCall
	require.NotNil(t, call)
	assert.Equal(t, "%H", call.Args["date_format"])

	resp := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "get_current_datetime", resp.Name)
	assert.Equal(t, "14", resp.Response["output"])

	require.NotNil(t, config.Temperature)
	assert.Equal(t, float32(0), *config.Temperature)
	assert.Equal(t, int32(100), config.MaxOutputTokens)
	require.NotNil(t, config.SystemInstruction)
	require.NotNil(t, config.ToolConfig)
	assert.Equal(t, genai.FunctionCallingConfigModeAny, config.ToolConfig.FunctionCallingConfig.Mode)
	assert.Equal(t, []string{"get_current_datetime"}, config.ToolConfig.FunctionCallingConfig.AllowedFunctionNames)
}

func TestBuildRequest_RejectsNonObjectToolInput(t *testing.T) {
	_, _, err := buildRequest(contract.CompletionRequest{
		Messages: []contract.Message{{Role: contract.RoleAssistant, Content: []contract.ContentBlock{
			contract.ToolUseBlock("x", "t", json.RawMessage(`[1,2]`)),
		}}},
	})
	assert.ErrorIs(t, err, chatErrors.ErrInvalidInput)
}

func TestAppendResponse_FunctionCallForcesToolUse(t *testing.T) {
	out := &contract.CompletionResponse{}
	appendResponse(out, &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "let me check"},
				{FunctionCall: &genai.FunctionCall{Name: "get_current_datetime", Args: map[string]any{"date_format": "%Y"}}},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 4, CandidatesTokenCount: 2},
	})

	assert.Equal(t, contract.StopToolUse, out.StopReason)
	assert.Equal(t, "let me check", out.Text())
	uses := contract.ToolUses(out.Content)
	require.Len(t, uses, 1)
	assert.Equal(t, "get_current_datetime_1", uses[0].ID)
	assert.Equal(t, int64(4), out.Usage.InputTokens)
}

func TestMergeText(t *testing.T) {
	merged := mergeText([]contract.ContentBlock{
		contract.TextBlock("a"), contract.TextBlock("b"),
		contract.ToolUseBlock("1", "t", nil),
		contract.TextBlock("c"),
	})
	require.Len(t, merged, 3)
	assert.Equal(t, "ab", merged[0].Text)
}
