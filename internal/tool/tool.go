package tool

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/harunnryd/chatlab/internal/model/contract"
)

// Tool represents an executable capability.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// Registry holds all available tools.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	name := NormalizeToolName(t.Name())
	if name == "" {
		panic("tool: empty tool name")
	}

	r.tools[name] = t
}

// Get matches name exactly. Names sent by a model are not trimmed.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the tool schemas in name order, or only the named ones in
// the order given. Unknown names are skipped.
func (r *Registry) Schemas(only ...string) []contract.ToolSchema {
	names := only
	if len(names) == 0 {
		names = r.Names()
	}

	schemas := make([]contract.ToolSchema, 0, len(names))
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			continue
		}
		schemas = append(schemas, SchemaOf(t))
	}
	return schemas
}

func (r *Registry) GetDescriptors() []ToolDescriptor {
	descriptors := make([]ToolDescriptor, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		descriptors = append(descriptors, ToolDescriptor{
			Definition: SchemaOf(t),
			Metadata:   describe(t),
		})
	}
	return descriptors
}

func SchemaOf(t Tool) contract.ToolSchema {
	return contract.ToolSchema{
		Name:        NormalizeToolName(t.Name()),
		Description: t.Description(),
		InputSchema: t.Parameters(),
	}
}

func NormalizeToolName(name string) string {
	return strings.TrimSpace(name)
}
