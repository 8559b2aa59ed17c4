package eval

import (
	"context"
	"testing"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrade = `{"strengths": ["concise"], "weaknesses": ["no validation"], "reasoning": "works", "score": 8}`

func TestParseGrade(t *testing.T) {
	grade, err := ParseGrade(sampleGrade)
	require.NoError(t, err)
	assert.Equal(t, 8.0, grade.Score)
	assert.Equal(t, []string{"concise"}, grade.Strengths)
	assert.Equal(t, "works", grade.Reasoning)

	grade, err = ParseGrade(`{"reasoning": "great", "score": 14}`)
	require.NoError(t, err)
	assert.Equal(t, MaxScore, grade.Score)

	grade, err = ParseGrade(`{"reasoning": "bad", "score": -2}`)
	require.NoError(t, err)
	assert.Equal(t, MinScore, grade.Score)

	for _, bad := range []string{`nope`, `{"reasoning": "x"}`, `{"score": "eight"}`} {
		_, err := ParseGrade(bad)
		assert.ErrorIs(t, err, chatErrors.ErrMalformedGrade, bad)
	}
}

func TestModelGrader_EmbedsTaskAndOutput(t *testing.T) {
	inv := newRoutedInvoker(map[string][]string{"code reviewer": {sampleGrade}})
	g := NewModelGrader(inv, ModelGraderConfig{Model: "grader"})

	grade, err := g.Grade(context.Background(), TestCase{Task: "match ids", Format: FormatRegex}, "^i-[0-9a-f]+$")
	require.NoError(t, err)
	assert.Equal(t, 8.0, grade.Score)

	prompt := inv.requests[0].Messages[0].Text()
	assert.Contains(t, prompt, "<task>\nmatch ids\n</task>")
	assert.Contains(t, prompt, "^i-[0-9a-f]+$")
	assert.Equal(t, "grader", inv.requests[0].Model)
}

func TestModelGrader_Malformed(t *testing.T) {
	inv := newRoutedInvoker(map[string][]string{"code reviewer": {"not json"}})
	g := NewModelGrader(inv, ModelGraderConfig{MaxRetries: 1})

	_, err := g.Grade(context.Background(), TestCase{Task: "t", Format: FormatJSON}, "{}")
	assert.ErrorIs(t, err, chatErrors.ErrMalformedGrade)
	assert.Equal(t, 2, inv.calls())
}
