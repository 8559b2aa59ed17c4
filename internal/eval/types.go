package eval

import (
	"fmt"
	"strings"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
)

type Format string

const (
	FormatPython Format = "python"
	FormatJSON   Format = "json"
	FormatRegex  Format = "regex"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPython, FormatJSON, FormatRegex:
		return f, nil
	default:
		return "", chatErrors.InvalidInput(fmt.Sprintf("unknown format %q (supported: python, json, regex)", s))
	}
}

type TestCase struct {
	Task   string `json:"task" yaml:"task"`
	Format Format `json:"format" yaml:"format"`
}

func (tc TestCase) Validate() error {
	if strings.TrimSpace(tc.Task) == "" {
		return fmt.Errorf("task is empty")
	}
	if _, err := ParseFormat(string(tc.Format)); err != nil {
		return err
	}
	return nil
}

// Grade is the structured judgment requested from the grading model.
type Grade struct {
	Strengths  []string `json:"strengths" yaml:"strengths"`
	Weaknesses []string `json:"weaknesses" yaml:"weaknesses"`
	Reasoning  string   `json:"reasoning" yaml:"reasoning"`
	Score      float64  `json:"score" yaml:"score"`
}

type EvalResult struct {
	Output      string   `json:"output" yaml:"output"`
	Score       float64  `json:"score" yaml:"score"`
	TestCase    TestCase `json:"test_case" yaml:"test_case"`
	Reasoning   string   `json:"reasoning" yaml:"reasoning"`
	SyntaxScore float64  `json:"syntax_score" yaml:"syntax_score"`
	ModelScore  float64  `json:"model_score" yaml:"model_score"`
	Strengths   []string `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Weaknesses  []string `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
}

type Report struct {
	RunID   string       `json:"run_id" yaml:"run_id"`
	Results []EvalResult `json:"results" yaml:"results"`
	Average float64      `json:"average" yaml:"average"`
	// SaveErr is set when the results file could not be written.
	SaveErr error `json:"-" yaml:"-"`
}
