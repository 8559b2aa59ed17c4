package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"google.golang.org/genai"
)

type Provider struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey, baseURL string) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	contents, config, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	out := &contract.CompletionResponse{Model: req.Model, StopReason: contract.StopUnknown}
	if resp == nil {
		return out, nil
	}
	appendResponse(out, resp)
	return out, nil
}

func (p *Provider) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	contents, config, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	out := &contract.CompletionResponse{Model: req.Model, StopReason: contract.StopUnknown}
	for chunk, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
		if err != nil {
			return nil, wrapError(err)
		}
		if chunk == nil {
			continue
		}
		if onText != nil {
			if delta := chunkText(chunk); delta != "" {
				if err := onText(delta); err != nil {
					return nil, err
				}
			}
		}
		appendResponse(out, chunk)
	}

	out.Content = mergeText(out.Content)
	return out, nil
}

func buildRequest(req contract.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	// Gemini keys function responses by name, not by call id.
	names := make(map[string]string)
	var contents []*genai.Content

	for _, m := range req.Messages {
		role := string(genai.RoleUser)
		if m.Role == contract.RoleAssistant {
			role = string(genai.RoleModel)
		}

		var parts []*genai.Part
		for _, b := range m.Content {
			switch b.Type {
			case contract.BlockText:
				parts = append(parts, &genai.Part{Text: b.Text})
			case contract.BlockToolUse:
				args := map[string]any{}
				if len(b.Input) > 0 {
					if err := json.Unmarshal(b.Input, &args); err != nil {
						return nil, nil, chatErrors.InvalidInput(fmt.Sprintf("tool_use %s input is not an object", b.ID))
					}
				}
				names[b.ID] = b.Name
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: b.ID, Name: b.Name, Args: args}})
			case contract.BlockToolResult:
				key := "output"
				if b.IsError {
					key = "error"
				}
				name := names[b.ToolUseID]
				if name == "" {
					name = b.ToolUseID
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       b.ToolUseID,
					Name:     name,
					Response: map[string]any{key: b.Content},
				}})
			default:
				return nil, nil, chatErrors.InvalidInput(fmt.Sprintf("unsupported content block type %q", b.Type))
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	config := &genai.GenerateContentConfig{StopSequences: req.StopSequences}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.InputSchema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	if req.ToolChoice != nil && len(config.Tools) > 0 {
		fc := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto}
		switch req.ToolChoice.Mode {
		case contract.ToolChoiceAny:
			fc.Mode = genai.FunctionCallingConfigModeAny
		case contract.ToolChoiceTool:
			fc.Mode = genai.FunctionCallingConfigModeAny
			fc.AllowedFunctionNames = []string{req.ToolChoice.Name}
		case contract.ToolChoiceNone:
			fc.Mode = genai.FunctionCallingConfigModeNone
		}
		config.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: fc}
	}

	return contents, config, nil
}

func appendResponse(out *contract.CompletionResponse, resp *genai.GenerateContentResponse) {
	if resp.UsageMetadata != nil {
		out.Usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.Usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if len(resp.Candidates) == 0 {
		return
	}

	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil || part.FunctionCall.Args == nil {
					args = []byte(`{}`)
				}
				id := part.FunctionCall.ID
				if id == "" {
					id = fmt.Sprintf("%s_%d", part.FunctionCall.Name, len(contract.ToolUses(out.Content))+1)
				}
				out.Content = append(out.Content, contract.ToolUseBlock(id, part.FunctionCall.Name, args))
			case part.Text != "" && !part.Thought:
				out.Content = append(out.Content, contract.TextBlock(part.Text))
			}
		}
	}

	if cand.FinishReason != "" {
		out.StopReason = stopReason(cand.FinishReason)
	}
	if len(contract.ToolUses(out.Content)) > 0 {
		out.StopReason = contract.StopToolUse
	}
}

func chunkText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// mergeText joins adjacent text blocks produced by streamed chunks.
func mergeText(blocks []contract.ContentBlock) []contract.ContentBlock {
	var out []contract.ContentBlock
	for _, b := range blocks {
		if n := len(out); n > 0 && b.Type == contract.BlockText && out[n-1].Type == contract.BlockText {
			out[n-1].Text += b.Text
			continue
		}
		out = append(out, b)
	}
	return out
}

func stopReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return contract.StopEndTurn
	case genai.FinishReasonMaxTokens:
		return contract.StopMaxTokens
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return contract.StopContentFlags
	default:
		return strings.ToLower(string(reason))
	}
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &chatErrors.RemoteError{Provider: "gemini", Status: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &chatErrors.RemoteError{Provider: "gemini", Status: apiErrPtr.Code, Err: err}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
