package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDataset = `
[
  {"task": "Write a Python function that returns an S3 bucket ARN", "format": "python"},
  {"task": "Create an IAM policy JSON granting s3:GetObject", "format": "JSON"},
  {"task": "Regex matching an EC2 instance id", "format": "regex"}
]
`

func TestParseDataset(t *testing.T) {
	dataset, err := ParseDataset([]byte(sampleDataset))
	require.NoError(t, err)
	require.Len(t, dataset, 3)
	assert.Equal(t, FormatJSON, dataset[1].Format)

	bad := []string{
		`not json`,
		`{"task": "x", "format": "json"}`,
		`[]`,
		`[{"task": "", "format": "json"}]`,
		`[{"task": "x", "format": "yaml"}]`,
	}
	for _, input := range bad {
		_, err := ParseDataset([]byte(input))
		assert.ErrorIs(t, err, chatErrors.ErrMalformedDataset, input)
	}
}

func TestGenerator_PrefillAndStop(t *testing.T) {
	inv := newRoutedInvoker(map[string][]string{"evaluation dataset": {sampleDataset}})
	g := NewGenerator(inv, GeneratorConfig{Model: "m", MaxTokens: 1000, Topic: "AWS"})

	dataset, err := g.Generate(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, dataset, 3)

	require.Len(t, inv.requests, 1)
	req := inv.requests[0]
	assert.Equal(t, []string{"```"}, req.StopSequences)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, contract.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "```json", req.Messages[1].Text())
	assert.Contains(t, req.Messages[0].Text(), "Please generate 3 objects.")
	assert.Contains(t, req.Messages[0].Text(), "AWS-related")
}

func TestGenerator_RetriesThenSucceeds(t *testing.T) {
	inv := newRoutedInvoker(map[string][]string{"evaluation dataset": {"oops", sampleDataset}})
	g := NewGenerator(inv, GeneratorConfig{MaxRetries: 2})

	dataset, err := g.Generate(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, dataset, 3)

	require.Len(t, inv.requests, 2)
	retry := inv.requests[1].Messages
	require.Len(t, retry, 4)
	assert.Contains(t, retry[2].Text(), "could not be used")
}

func TestGenerator_ExhaustsRetries(t *testing.T) {
	inv := newRoutedInvoker(map[string][]string{"evaluation dataset": {"oops"}})
	g := NewGenerator(inv, GeneratorConfig{MaxRetries: 1})

	_, err := g.Generate(context.Background(), 3)
	assert.ErrorIs(t, err, chatErrors.ErrMalformedDataset)
	assert.Equal(t, 2, inv.calls())
}

func TestGenerator_RemoteErrorNotRetried(t *testing.T) {
	inv := newRoutedInvoker(nil)
	inv.err = chatErrors.ErrRemoteCall
	g := NewGenerator(inv, GeneratorConfig{MaxRetries: 3})

	_, err := g.Generate(context.Background(), 3)
	assert.True(t, errors.Is(err, chatErrors.ErrRemoteCall))
	assert.Equal(t, 1, inv.calls())
}

func TestLoadOrGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "generated_dataset.json")
	inv := newRoutedInvoker(map[string][]string{"evaluation dataset": {sampleDataset}})
	g := NewGenerator(inv, GeneratorConfig{})

	first, err := g.LoadOrGenerate(context.Background(), path, 3)
	require.NoError(t, err)
	assert.FileExists(t, path)

	second, err := g.LoadOrGenerate(context.Background(), path, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inv.calls(), "second call must load from disk")
}

func TestLoadDataset_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"task": 1}`), 0o644))

	_, found, err := LoadDataset(path)
	assert.True(t, found)
	assert.ErrorIs(t, err, chatErrors.ErrMalformedDataset)
}
