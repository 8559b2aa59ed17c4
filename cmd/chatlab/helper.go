package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/harunnryd/chatlab/internal/config"
	"github.com/harunnryd/chatlab/internal/formatter"
	"github.com/harunnryd/chatlab/internal/model"

	"github.com/spf13/cobra"
)

// invokerOverride replaces the model router; tests set it.
var invokerOverride model.Invoker

func executeWithRuntime(cmd *cobra.Command, withModels bool, fn func(*runtime.RuntimeComponents) error) error {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	signals := NewSignalHandler(base)
	signals.Start()
	defer signals.Stop()

	builder := runtime.NewRuntimeBuilder().
		WithContext(signals.Context()).
		WithConfig(loadedCfg).
		WithModels(withModels)
	if invokerOverride != nil {
		builder = builder.WithInvoker(invokerOverride)
	}

	components, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer components.Stop()

	return fn(components)
}

func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	loadedCfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	return loadedCfg, nil
}

func formatterFor(cmd *cobra.Command) (formatter.Formatter, error) {
	value := string(formatter.OutputFormatTable)
	if flag := cmd.Flags().Lookup("output"); flag != nil {
		value = flag.Value.String()
	}
	format, err := formatter.ParseOutputFormat(value)
	if err != nil {
		return nil, err
	}
	return formatter.NewFormatterFactory().Create(format)
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", string(formatter.OutputFormatTable), "output format (table, json, yaml)")
}
