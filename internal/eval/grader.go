package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model"

	"github.com/tidwall/gjson"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

type ModelGraderConfig struct {
	Model      string
	MaxTokens  int
	Topic      string
	MaxRetries int
}

// ModelGrader asks a model to judge an output against its task.
type ModelGrader struct {
	invoker model.Invoker
	cfg     ModelGraderConfig
}

func NewModelGrader(invoker model.Invoker, cfg ModelGraderConfig) *ModelGrader {
	if cfg.Topic == "" {
		cfg.Topic = "AWS"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &ModelGrader{invoker: invoker, cfg: cfg}
}

// Grade returns the model's judgment with its score clamped into
// [MinScore, MaxScore]. Replies that never parse yield ErrMalformedGrade.
func (g *ModelGrader) Grade(ctx context.Context, tc TestCase, output string) (*Grade, error) {
	prompt := fmt.Sprintf(gradePrompt, g.cfg.Topic, tc.Task, output)
	opts := callOptions{Model: g.cfg.Model, MaxTokens: g.cfg.MaxTokens}

	var grade *Grade
	err := askJSON(ctx, g.invoker, opts, prompt, g.cfg.MaxRetries, func(text string) error {
		parsed, err := ParseGrade(text)
		if err != nil {
			return err
		}
		grade = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grade output: %w", err)
	}
	return grade, nil
}

// ParseGrade decodes a judgment. The score must be present and numeric.
func ParseGrade(text string) (*Grade, error) {
	if !gjson.Valid(text) {
		return nil, chatErrors.MalformedGrade("reply is not valid JSON")
	}
	score := gjson.Get(text, "score")
	if score.Type != gjson.Number {
		return nil, chatErrors.MalformedGrade("score is missing or not a number")
	}

	var grade Grade
	if err := json.Unmarshal([]byte(text), &grade); err != nil {
		return nil, chatErrors.MalformedGrade(err.Error())
	}
	grade.Score = clampScore(score.Float())
	return &grade, nil
}

// fallbackGrade stands in for a judgment that never parsed.
func fallbackGrade(err error) *Grade {
	slog.Warn("Model grade unusable, scoring 0", "error", err)
	return &Grade{
		Score:     MinScore,
		Reasoning: fmt.Sprintf("model grade unavailable: %v", err),
	}
}

func isMalformedGrade(err error) bool {
	return errors.Is(err, chatErrors.ErrMalformedGrade)
}

func clampScore(v float64) float64 {
	switch {
	case v < MinScore:
		return MinScore
	case v > MaxScore:
		return MaxScore
	default:
		return v
	}
}
