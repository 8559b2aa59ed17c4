package tool_test

import (
	"testing"

	"github.com/harunnryd/chatlab/internal/tool"
	_ "github.com/harunnryd/chatlab/internal/tool/builtin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNames_DeterministicAndComplete(t *testing.T) {
	assert.Equal(t, []string{
		"add_duration_to_datetime",
		"analyze_financial_statement",
		"article_summary",
		"batch_tool",
		"get_current_datetime",
		"set_reminder",
	}, tool.BuiltinNames())

	assert.True(t, tool.IsBuiltinName(" batch_tool "))
	assert.False(t, tool.IsBuiltinName("exec_command"))
}

func TestInstantiateBuiltins_BatchNeedsDispatcher(t *testing.T) {
	_, err := tool.InstantiateBuiltins(tool.BuiltinOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_tool")
}

func TestNewDefault_RegistersEveryBuiltin(t *testing.T) {
	registry, dispatcher, err := tool.NewDefault(tool.BuiltinOptions{})
	require.NoError(t, err)
	require.NotNil(t, dispatcher)
	assert.Same(t, registry, dispatcher.Registry())
	assert.Equal(t, tool.BuiltinNames(), registry.Names())

	for _, d := range registry.GetDescriptors() {
		assert.Equal(t, "builtin", d.Metadata.Source, d.Definition.Name)
		assert.NotEmpty(t, d.Definition.Description, d.Definition.Name)
		assert.Equal(t, "object", d.Definition.InputSchema["type"], d.Definition.Name)
	}
}

func TestRegistrySchemas_SelectsInOrder(t *testing.T) {
	registry, _, err := tool.NewDefault(tool.BuiltinOptions{})
	require.NoError(t, err)

	schemas := registry.Schemas("set_reminder", "missing", "get_current_datetime")
	require.Len(t, schemas, 2)
	assert.Equal(t, "set_reminder", schemas[0].Name)
	assert.Equal(t, "get_current_datetime", schemas[1].Name)
	assert.ElementsMatch(t, []string{"content", "timestamp"}, schemas[0].Required())
}
