package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/sashabaranov/go-openai"
)

// Provider talks to the OpenAI chat completions API and to any server that
// speaks it (Ollama, vLLM, LM Studio).
type Provider struct {
	client *openai.Client
	name   string
}

func New(apiKey, baseURL string) *Provider {
	return NewNamed("openai", apiKey, baseURL)
}

// NewNamed builds a provider reported under name, for OpenAI-compatible
// backends registered under their own provider key.
func NewNamed(name, apiKey, baseURL string) *Provider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &Provider{client: openai.NewClientWithConfig(cfg), name: name}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	chatReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices returned", p.name)
	}

	choice := resp.Choices[0]
	out := &contract.CompletionResponse{
		Model:      resp.Model,
		StopReason: stopReason(choice.FinishReason),
		Usage: contract.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, contract.TextBlock(choice.Message.Content))
	}
	for i, tc := range choice.Message.ToolCalls {
		out.Content = append(out.Content, toolUse(i, tc))
	}

	return out, nil
}

// Stream forwards content deltas to onText. Tool call fragments are stitched
// together by index and surface only in the final response.
func (p *Provider) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	chatReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}
	chatReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, p.wrapError(err)
	}
	defer stream.Close()

	var (
		text   strings.Builder
		calls  []openai.ToolCall
		finish openai.FinishReason
		model  string
	)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.wrapError(err)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finish = choice.FinishReason
		}
		if delta := choice.Delta.Content; delta != "" {
			text.WriteString(delta)
			if onText != nil {
				if err := onText(delta); err != nil {
					return nil, err
				}
			}
		}
		for _, frag := range choice.Delta.ToolCalls {
			idx := len(calls)
			if frag.Index != nil {
				idx = *frag.Index
			}
			for len(calls) <= idx {
				calls = append(calls, openai.ToolCall{Type: openai.ToolTypeFunction})
			}
			if frag.ID != "" {
				calls[idx].ID = frag.ID
			}
			if frag.Function.Name != "" {
				calls[idx].Function.Name = frag.Function.Name
			}
			calls[idx].Function.Arguments += frag.Function.Arguments
		}
	}

	out := &contract.CompletionResponse{Model: model, StopReason: stopReason(finish)}
	if text.Len() > 0 {
		out.Content = append(out.Content, contract.TextBlock(text.String()))
	}
	for i, tc := range calls {
		out.Content = append(out.Content, toolUse(i, tc))
	}

	return out, nil
}

func buildRequest(req contract.CompletionRequest) (openai.ChatCompletionRequest, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}

	for _, m := range req.Messages {
		converted, err := convertMessage(m)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		messages = append(messages, converted...)
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Stop:      req.StopSequences,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	if req.ToolChoice != nil && req.ToolChoice.Mode == contract.ToolChoiceNone {
		return chatReq, nil
	}

	for _, t := range req.Tools {
		params := t.InputSchema
		if params == nil {
			params = map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			}
		}
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	if req.ToolChoice != nil && len(chatReq.Tools) > 0 {
		switch req.ToolChoice.Mode {
		case contract.ToolChoiceAny:
			chatReq.ToolChoice = "required"
		case contract.ToolChoiceTool:
			chatReq.ToolChoice = openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: req.ToolChoice.Name},
			}
		default:
			chatReq.ToolChoice = "auto"
		}
	}

	return chatReq, nil
}

// convertMessage flattens one turn. A user turn carrying tool results becomes
// one tool-role message per result, followed by any plain text.
func convertMessage(m contract.Message) ([]openai.ChatCompletionMessage, error) {
	var (
		out   []openai.ChatCompletionMessage
		texts []string
		calls []openai.ToolCall
	)

	for _, b := range m.Content {
		switch b.Type {
		case contract.BlockText:
			texts = append(texts, b.Text)
		case contract.BlockToolUse:
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			calls = append(calls, openai.ToolCall{
				ID:   b.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      b.Name,
					Arguments: args,
				},
			})
		case contract.BlockToolResult:
			content := b.Content
			if b.IsError && !strings.HasPrefix(content, "error") {
				content = "error: " + content
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: b.ToolUseID,
			})
		default:
			return nil, chatErrors.InvalidInput(fmt.Sprintf("unsupported content block type %q", b.Type))
		}
	}

	if m.Role == contract.RoleAssistant {
		if len(texts) > 0 || len(calls) > 0 {
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   strings.Join(texts, "\n"),
				ToolCalls: calls,
			})
		}
		return out, nil
	}

	if len(texts) > 0 {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: strings.Join(texts, "\n"),
		})
	}
	return out, nil
}

func toolUse(i int, tc openai.ToolCall) contract.ContentBlock {
	id := tc.ID
	if id == "" {
		id = fmt.Sprintf("call_%d", i+1)
	}
	args := json.RawMessage(tc.Function.Arguments)
	if len(args) == 0 || !json.Valid(args) {
		args = json.RawMessage(`{}`)
	}
	return contract.ToolUseBlock(id, tc.Function.Name, args)
}

// stopReason maps OpenAI finish reasons onto the Anthropic vocabulary the
// rest of chatlab speaks. OpenAI does not say which stop sequence fired, so
// "stop" is always reported as end_turn.
func stopReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonStop:
		return contract.StopEndTurn
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return contract.StopToolUse
	case openai.FinishReasonLength:
		return contract.StopMaxTokens
	case openai.FinishReasonContentFilter:
		return contract.StopContentFlags
	case "":
		return contract.StopUnknown
	default:
		return string(reason)
	}
}

func (p *Provider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &chatErrors.RemoteError{Provider: p.name, Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &chatErrors.RemoteError{Provider: p.name, Status: reqErr.HTTPStatusCode, Err: err}
	}
	return fmt.Errorf("%s request failed: %w", p.name, err)
}
