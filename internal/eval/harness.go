package eval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/chatlab/internal/logger"
	"github.com/harunnryd/chatlab/internal/store"

	"golang.org/x/sync/errgroup"
)

type HarnessConfig struct {
	ResultsPath string
	Concurrency int
	LockTimeout time.Duration
}

// Harness runs, grades and aggregates a dataset.
type Harness struct {
	runner *Runner
	syntax *SyntaxGrader
	grader *ModelGrader
	cfg    HarnessConfig
}

func NewHarness(runner *Runner, syntax *SyntaxGrader, grader *ModelGrader, cfg HarnessConfig) *Harness {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Harness{runner: runner, syntax: syntax, grader: grader, cfg: cfg}
}

// Run evaluates every case and returns results in dataset order. A remote
// failure aborts the run. A failed save is reported in Report.SaveErr and
// does not fail the run.
func (h *Harness) Run(ctx context.Context, dataset []TestCase) (*Report, error) {
	ctx = logger.WithRunID(ctx, "")
	runID := logger.GetRunID(ctx)

	if h.cfg.ResultsPath != "" {
		lock, err := store.NewFileLock(ctx, "eval:"+runID, store.LockPath(h.cfg.ResultsPath), &store.FileLockConfig{
			LockTimeout: h.cfg.LockTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("acquire results lock: %w", err)
		}
		defer lock.Unlock()
	}

	slog.Info("Eval run started", "run_id", runID, "cases", len(dataset), "concurrency", h.cfg.Concurrency)

	results := make([]EvalResult, len(dataset))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)
	for i, tc := range dataset {
		g.Go(func() error {
			result, err := h.Evaluate(gctx, tc)
			if err != nil {
				return fmt.Errorf("case %d: %w", i, err)
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	average, err := Mean(results)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: runID, Results: results, Average: average}
	if h.cfg.ResultsPath != "" {
		if err := Save(h.cfg.ResultsPath, results); err != nil {
			slog.Error("Failed to save eval results", "run_id", runID, "path", h.cfg.ResultsPath, "error", err)
			report.SaveErr = err
		}
	}

	slog.Info("Eval run finished", "run_id", runID, "average", average)
	return report, nil
}

// Evaluate runs one case and scores it as the mean of the syntax and model
// grades.
func (h *Harness) Evaluate(ctx context.Context, tc TestCase) (*EvalResult, error) {
	output, err := h.runner.Run(ctx, tc)
	if err != nil {
		return nil, err
	}

	grade, err := h.grader.Grade(ctx, tc, output)
	if err != nil {
		if !isMalformedGrade(err) {
			return nil, err
		}
		grade = fallbackGrade(err)
	}

	syntaxScore := h.syntax.Grade(output, tc.Format)
	result := &EvalResult{
		Output:      output,
		Score:       (syntaxScore + grade.Score) / 2,
		TestCase:    tc,
		Reasoning:   grade.Reasoning,
		SyntaxScore: syntaxScore,
		ModelScore:  grade.Score,
		Strengths:   grade.Strengths,
		Weaknesses:  grade.Weaknesses,
	}

	slog.Debug("Case evaluated", "run_id", logger.GetRunID(ctx), "format", tc.Format, "syntax", syntaxScore, "model", grade.Score)
	return result, nil
}
