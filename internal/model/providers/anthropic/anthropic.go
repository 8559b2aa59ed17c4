package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

type Provider struct {
	client anthropic.Client
}

// New builds a provider. maxRetries is handed to the SDK; chatlab itself
// never retries a remote call.
func New(apiKey, baseURL string, maxRetries int) *Provider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Provider{client: anthropic.NewClient(opts...)}
}

func (p *Provider) Name() string {
	return "anthropic"
}

func (p *Provider) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return toResponse(msg)
}

// Stream delivers text deltas to onText as they arrive and returns the
// accumulated message once the stream is exhausted.
func (p *Provider) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic stream accumulate: %w", err)
		}

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if onText != nil && delta.Text != "" {
					if err := onText(delta.Text); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, wrapError(err)
	}

	return toResponse(&message)
}

func buildParams(req contract.CompletionRequest) (anthropic.MessageNewParams, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case contract.BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case contract.BlockToolUse:
				var input any = map[string]any{}
				if len(b.Input) > 0 {
					input = b.Input
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, input, b.Name))
			case contract.BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			default:
				return anthropic.MessageNewParams{}, chatErrors.InvalidInput(fmt.Sprintf("unsupported content block type %q", b.Type))
			}
		}

		switch m.Role {
		case contract.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		default:
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:         anthropic.Model(req.Model),
		MaxTokens:     maxTokens,
		Messages:      messages,
		StopSequences: req.StopSequences,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	if req.ToolChoice != nil && req.ToolChoice.Mode == contract.ToolChoiceNone {
		return params, nil
	}

	for _, t := range req.Tools {
		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Properties(),
				Required:   t.Required(),
			},
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	if req.ToolChoice != nil && len(params.Tools) > 0 {
		switch req.ToolChoice.Mode {
		case contract.ToolChoiceAny:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		case contract.ToolChoiceTool:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolChoice.Name}}
		default:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		}
	}

	return params, nil
}

func toResponse(msg *anthropic.Message) (*contract.CompletionResponse, error) {
	resp := &contract.CompletionResponse{
		Model:        string(msg.Model),
		StopReason:   string(msg.StopReason),
		StopSequence: msg.StopSequence,
		Usage: contract.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, contract.TextBlock(b.Text))
		case anthropic.ToolUseBlock:
			inputJSON, err := json.Marshal(b.Input)
			if err != nil {
				return nil, fmt.Errorf("encode tool input for %s: %w", b.Name, err)
			}
			resp.Content = append(resp.Content, contract.ToolUseBlock(b.ID, b.Name, inputJSON))
		}
	}

	return resp, nil
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &chatErrors.RemoteError{Provider: "anthropic", Status: apiErr.StatusCode, Err: err}
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
