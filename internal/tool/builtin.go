package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harunnryd/chatlab/internal/reminder"
)

// DispatchFunc runs one named tool. batch_tool uses it to reach its siblings.
type DispatchFunc func(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error)

// ReminderScheduler accepts reminders recorded by set_reminder.
type ReminderScheduler interface {
	Schedule(ctx context.Context, content string, at time.Time, recurrence string) (reminder.Reminder, error)
}

// BuiltinOptions carries runtime dependencies needed by built-in tool factories.
type BuiltinOptions struct {
	Now       func() time.Time
	Reminders ReminderScheduler
	Dispatch  DispatchFunc
}

func (o BuiltinOptions) Clock() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

type BuiltinFactory func(options BuiltinOptions) (Tool, error)

var builtinCatalog = struct {
	mu        sync.RWMutex
	factories map[string]BuiltinFactory
}{
	factories: map[string]BuiltinFactory{},
}

// RegisterBuiltin registers a built-in tool factory under a tool name.
// Intended to be called in init() from built-in tool files.
func RegisterBuiltin(name string, factory BuiltinFactory) {
	normalized := NormalizeToolName(name)
	if normalized == "" {
		panic("tool: built-in name cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("tool: built-in factory cannot be nil (%s)", normalized))
	}

	builtinCatalog.mu.Lock()
	defer builtinCatalog.mu.Unlock()

	if _, exists := builtinCatalog.factories[normalized]; exists {
		panic(fmt.Sprintf("tool: built-in already registered: %s", normalized))
	}
	builtinCatalog.factories[normalized] = factory
}

// BuiltinNames returns all registered built-in names in deterministic order.
func BuiltinNames() []string {
	builtinCatalog.mu.RLock()
	defer builtinCatalog.mu.RUnlock()

	names := make([]string, 0, len(builtinCatalog.factories))
	for name := range builtinCatalog.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltinName reports whether a tool name maps to a registered built-in tool.
func IsBuiltinName(name string) bool {
	normalized := NormalizeToolName(name)
	if normalized == "" {
		return false
	}

	builtinCatalog.mu.RLock()
	defer builtinCatalog.mu.RUnlock()
	_, ok := builtinCatalog.factories[normalized]
	return ok
}

// InstantiateBuiltins constructs all built-in tools using their registered factories.
func InstantiateBuiltins(options BuiltinOptions) ([]Tool, error) {
	names := BuiltinNames()

	builtinCatalog.mu.RLock()
	factories := make(map[string]BuiltinFactory, len(builtinCatalog.factories))
	for name, factory := range builtinCatalog.factories {
		factories[name] = factory
	}
	builtinCatalog.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		toolFactory, ok := factories[name]
		if !ok {
			continue
		}

		t, err := toolFactory(options)
		if err != nil {
			return nil, fmt.Errorf("instantiate built-in %q: %w", name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// NewDefault builds a registry of every built-in and a dispatcher over it.
// When options.Dispatch is unset, batch_tool dispatches through the returned
// dispatcher.
func NewDefault(options BuiltinOptions) (*Registry, *Dispatcher, error) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)
	if options.Dispatch == nil {
		options.Dispatch = dispatcher.Dispatch
	}

	builtins, err := InstantiateBuiltins(options)
	if err != nil {
		return nil, nil, err
	}
	for _, t := range builtins {
		registry.Register(t)
	}

	return registry, dispatcher, nil
}
