package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/logger"
	"github.com/harunnryd/chatlab/internal/model/contract"
)

// Dispatcher executes tool_use requests against a Registry.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs the tool registered under exactly name. Unknown names fail
// with ErrUnknownTool and schema violations with ErrInvalidInput; a panic in
// the tool is reported as ErrInternal.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, input json.RawMessage) (result json.RawMessage, err error) {
	t, ok := d.registry.Get(name)
	if !ok {
		return nil, chatErrors.UnknownTool(name)
	}
	resolved := NormalizeToolName(t.Name())

	if err := ValidateInput(t.Parameters(), input); err != nil {
		slog.Warn("Tool input validation failed", "tool", resolved, "error", err)
		return nil, chatErrors.WrapWithCategory(err, fmt.Sprintf("invalid input for %s", resolved), chatErrors.ErrInvalidInput)
	}
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Tool panicked", "tool", resolved, "panic", rec)
			result = nil
			err = chatErrors.Internal(fmt.Sprintf("tool %s panicked: %v", resolved, rec))
		}
	}()

	start := time.Now()
	traceID := logger.GetTraceID(ctx)
	slog.Debug("Executing tool", "tool", resolved, "trace_id", traceID)

	result, err = t.Execute(ctx, input)

	duration := time.Since(start)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", resolved, "error", err, "duration", duration, "trace_id", traceID)
		return nil, err
	}

	slog.Debug("Tool execution success", "tool", resolved, "duration", duration, "trace_id", traceID)
	return result, nil
}

// Run answers every tool_use block in blocks with exactly one tool_result,
// in the same order. Failures become is_error results; Run never aborts.
func (d *Dispatcher) Run(ctx context.Context, blocks []contract.ContentBlock) []contract.ContentBlock {
	uses := contract.ToolUses(blocks)
	results := make([]contract.ContentBlock, 0, len(uses))

	for _, use := range uses {
		out, err := d.Dispatch(ctx, use.Name, use.Input)
		if err != nil {
			results = append(results, contract.ToolResultBlock(use.ID, "error: "+err.Error(), true))
			continue
		}
		results = append(results, contract.ToolResultBlock(use.ID, ResultText(out), false))
	}

	return results
}

// ResultText renders a tool output for the model. JSON strings are unquoted;
// anything else is passed through as JSON text.
func ResultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
