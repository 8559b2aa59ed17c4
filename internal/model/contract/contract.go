package contract

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Stop reasons reported by providers. Providers may return others.
const (
	StopEndTurn      = "end_turn"
	StopToolUse      = "tool_use"
	StopSequence     = "stop_sequence"
	StopMaxTokens    = "max_tokens"
	StopRefusal      = "refusal"
	StopUnknown      = "unknown"
	StopPauseTurn    = "pause_turn"
	StopContentFlags = "content_filter"
)

// ContentBlock is a tagged variant. Only the fields of its Type are meaningful.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// Text joins the text blocks of the message with newlines.
func (m Message) Text() string {
	return JoinText(m.Content)
}

// ToolUses returns the tool_use blocks in order.
func (m Message) ToolUses() []ContentBlock {
	return ToolUses(m.Content)
}

func JoinText(blocks []ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == BlockText {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func ToolUses(blocks []ContentBlock) []ContentBlock {
	var uses []ContentBlock
	for _, b := range blocks {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// CloneMessages copies the message slice and each content slice so the
// callee cannot alias the caller's history.
func CloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = Message{Role: m.Role, Content: append([]ContentBlock(nil), m.Content...)}
	}
	return out
}

// ToolSchema is advertised to the model on every request that enables tools.
type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Required lists the schema's required field names.
func (s ToolSchema) Required() []string {
	switch req := s.InputSchema["required"].(type) {
	case []string:
		return req
	case []interface{}:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if name, ok := r.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}

// Properties returns the schema's property map, or an empty map.
func (s ToolSchema) Properties() map[string]interface{} {
	if props, ok := s.InputSchema["properties"].(map[string]interface{}); ok {
		return props
	}
	return map[string]interface{}{}
}

type ToolChoiceMode string

const (
	ToolChoiceAuto ToolChoiceMode = "auto"
	ToolChoiceAny  ToolChoiceMode = "any"
	ToolChoiceTool ToolChoiceMode = "tool"
	ToolChoiceNone ToolChoiceMode = "none"
)

type ToolChoice struct {
	Mode ToolChoiceMode `json:"mode"`
	Name string         `json:"name,omitempty"`
}

type CompletionRequest struct {
	Model         string       `json:"model"`
	Messages      []Message    `json:"messages"`
	System        string       `json:"system,omitempty"`
	Temperature   *float64     `json:"temperature,omitempty"`
	MaxTokens     int          `json:"max_tokens"`
	StopSequences []string     `json:"stop_sequences,omitempty"`
	Tools         []ToolSchema `json:"tools,omitempty"`
	ToolChoice    *ToolChoice  `json:"tool_choice,omitempty"`
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type CompletionResponse struct {
	Model        string         `json:"model,omitempty"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Text joins the text blocks of the response.
func (r *CompletionResponse) Text() string {
	if r == nil {
		return ""
	}
	return JoinText(r.Content)
}

// Message converts the response into an assistant turn.
func (r *CompletionResponse) Message() Message {
	return Message{Role: RoleAssistant, Content: append([]ContentBlock(nil), r.Content...)}
}

func Float(v float64) *float64 {
	return &v
}
