package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model"
	"github.com/harunnryd/chatlab/internal/store"
)

type GeneratorConfig struct {
	Model      string
	MaxTokens  int
	Topic      string
	MaxRetries int
}

// Generator synthesizes a dataset of test cases through one chat call.
type Generator struct {
	invoker model.Invoker
	cfg     GeneratorConfig
}

func NewGenerator(invoker model.Invoker, cfg GeneratorConfig) *Generator {
	if cfg.Topic == "" {
		cfg.Topic = "AWS"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Generator{invoker: invoker, cfg: cfg}
}

func (g *Generator) Generate(ctx context.Context, n int) ([]TestCase, error) {
	if n <= 0 {
		return nil, chatErrors.InvalidInput("dataset size must be positive")
	}

	var dataset []TestCase
	prompt := fmt.Sprintf(datasetPrompt, g.cfg.Topic, n)
	opts := callOptions{Model: g.cfg.Model, MaxTokens: g.cfg.MaxTokens}

	err := askJSON(ctx, g.invoker, opts, prompt, g.cfg.MaxRetries, func(text string) error {
		parsed, err := ParseDataset([]byte(text))
		if err != nil {
			return err
		}
		dataset = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate dataset: %w", err)
	}

	slog.Info("Dataset generated", "cases", len(dataset), "topic", g.cfg.Topic)
	return dataset, nil
}

// ParseDataset decodes a JSON array of test cases. Anything else, an empty
// array included, is ErrMalformedDataset.
func ParseDataset(data []byte) ([]TestCase, error) {
	var dataset []TestCase
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, chatErrors.MalformedDataset(fmt.Sprintf("not a JSON array of test cases: %v", err))
	}
	if len(dataset) == 0 {
		return nil, chatErrors.MalformedDataset("dataset is empty")
	}
	for i := range dataset {
		if err := dataset[i].Validate(); err != nil {
			return nil, chatErrors.MalformedDataset(fmt.Sprintf("case %d: %v", i, err))
		}
		dataset[i].Format, _ = ParseFormat(string(dataset[i].Format))
	}
	return dataset, nil
}

// LoadDataset reads a persisted dataset. found is false when path does not
// exist.
func LoadDataset(path string) (dataset []TestCase, found bool, err error) {
	var raw json.RawMessage
	found, err = store.ReadJSON(path, &raw)
	if err != nil {
		return nil, found, chatErrors.MalformedDataset(err.Error())
	}
	if !found {
		return nil, false, nil
	}
	dataset, err = ParseDataset(raw)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return dataset, true, nil
}

func SaveDataset(path string, dataset []TestCase) error {
	if err := store.WriteJSON(path, dataset); err != nil {
		return chatErrors.WrapWithCategory(err, "save dataset", chatErrors.ErrPersistence)
	}
	return nil
}

// LoadOrGenerate returns the dataset at path, generating and saving n new
// cases when the file is absent. A failed save is logged and ignored.
func (g *Generator) LoadOrGenerate(ctx context.Context, path string, n int) ([]TestCase, error) {
	dataset, found, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	if found {
		slog.Info("Dataset loaded", "path", path, "cases", len(dataset))
		return dataset, nil
	}

	dataset, err = g.Generate(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := SaveDataset(path, dataset); err != nil {
		slog.Warn("Failed to save generated dataset", "path", path, "error", err)
	}
	return dataset, nil
}
