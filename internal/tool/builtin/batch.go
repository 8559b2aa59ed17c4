package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	toolcore "github.com/harunnryd/chatlab/internal/tool"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

const batchToolName = "batch_tool"

func init() {
	toolcore.RegisterBuiltin(batchToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		if options.Dispatch == nil {
			return nil, fmt.Errorf("batch_tool requires a dispatcher")
		}
		return &BatchTool{dispatch: options.Dispatch}, nil
	})
}

type batchInvocation struct {
	Name      string `json:"name" jsonschema:"description=The name of the tool to invoke"`
	Arguments string `json:"arguments" jsonschema:"description=The arguments to the tool encoded as a JSON string"`
}

type batchInput struct {
	Invocations []batchInvocation `json:"invocations" jsonschema:"description=The tool calls to invoke"`
}

// BatchEntry is the outcome of one sub-invocation.
type BatchEntry struct {
	ToolName string          `json:"tool_name"`
	Output   json.RawMessage `json:"output,omitempty"`
	Error    string          `json:"error,omitempty"`
	IsError  bool            `json:"is_error"`
}

// BatchTool runs several tool calls in order. A failing call never stops the
// rest; every call yields exactly one entry.
type BatchTool struct {
	dispatch toolcore.DispatchFunc
}

func (t *BatchTool) Name() string {
	return batchToolName
}

func (t *BatchTool) Description() string {
	return "Invoke multiple other tool calls simultaneously"
}

func (t *BatchTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{
		Source:       "builtin",
		Capabilities: []string{"tool.batch"},
		Effect:       toolcore.EffectDelegates,
	}
}

func (t *BatchTool) Parameters() map[string]interface{} {
	return toolcore.ReflectSchema[batchInput]()
}

func (t *BatchTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args batchInput
	if err := decodeInput(input, &args); err != nil {
		return nil, err
	}

	results := lo.Map(args.Invocations, func(inv batchInvocation, _ int) mo.Result[json.RawMessage] {
		return t.invoke(ctx, inv)
	})

	entries := make([]BatchEntry, len(results))
	for i, res := range results {
		entries[i] = BatchEntry{ToolName: args.Invocations[i].Name}
		if out, err := res.Get(); err != nil {
			entries[i].Error = err.Error()
			entries[i].IsError = true
		} else {
			entries[i].Output = out
		}
	}

	return json.Marshal(entries)
}

func (t *BatchTool) invoke(ctx context.Context, inv batchInvocation) mo.Result[json.RawMessage] {
	if toolcore.NormalizeToolName(inv.Name) == batchToolName {
		return mo.Err[json.RawMessage](chatErrors.InvalidInput("batch_tool cannot be nested"))
	}

	args := json.RawMessage(inv.Arguments)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if !json.Valid(args) {
		return mo.Err[json.RawMessage](chatErrors.InvalidInput(fmt.Sprintf("arguments for %s are not valid JSON", inv.Name)))
	}

	return mo.TupleToResult(t.dispatch(ctx, inv.Name, args))
}
