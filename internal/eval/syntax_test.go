package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntaxGrader(t *testing.T) {
	g := NewSyntaxGrader()

	tests := []struct {
		name   string
		output string
		format Format
		want   float64
	}{
		{"valid json", `{"a":1}`, FormatJSON, 10},
		{"invalid json", `{a:1}`, FormatJSON, 0},
		{"json with whitespace", "\n  [1, 2]\n", FormatJSON, 10},
		{"valid python", `x = 1`, FormatPython, 10},
		{"invalid python", `def f(:`, FormatPython, 0},
		{"python function", "def arn(bucket):\n    return f\"arn:aws:s3:::{bucket}\"\n", FormatPython, 10},
		{"valid regex", `[a-z]+`, FormatRegex, 10},
		{"invalid regex", `[a-z`, FormatRegex, 0},
		{"lookahead regex", `^(?=.*\d)i-[0-9a-f]{8,17}$`, FormatRegex, 10},
		{"python named groups", `(?P<year>\d{4})-(?P<m>\d{2})`, FormatRegex, 10},
		{"python named backreference", `(?P<q>['"]).*?(?P=q)`, FormatRegex, 10},
		{"backreference to undefined group", `(?P<q>a)(?P=missing)`, FormatRegex, 0},
		{"python 2 print statement", `print "hello"`, FormatPython, 0},
		{"python 2 exec statement", `exec "x=1"`, FormatPython, 0},
		{"python 3 print call", `print("hello")`, FormatPython, 10},
		{"unknown format falls back to regex", `[a-z`, Format("yaml"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Grade(tt.output, tt.format))
		})
	}
}

func TestFromPythonSyntax(t *testing.T) {
	got, err := fromPythonSyntax(`(?P<q>['"]).*?(?P=q)`)
	require.NoError(t, err)
	assert.Equal(t, `(?<q>['"]).*?\k<q>`, got)

	got, err = fromPythonSyntax(`^[a-z]+$`)
	require.NoError(t, err)
	assert.Equal(t, `^[a-z]+$`, got)
}

func TestCleanOutput(t *testing.T) {
	assert.Equal(t, "x = 1", CleanOutput("\npython\nx = 1\n"))
	assert.Equal(t, `{"a": 1}`, CleanOutput("\n{\"a\": 1}\n"))
	assert.Equal(t, "python", CleanOutput("python"))
	assert.Equal(t, "^a$", CleanOutput("regex\n^a$"))
}
