package main

import (
	"fmt"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/harunnryd/chatlab/internal/config"
	"github.com/harunnryd/chatlab/internal/eval"

	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the prompt evaluation harness",
	Long: `Load the dataset (or generate and save one when the file is missing), run
every test case, grade each output by syntax and by model, print the report
and save the results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		return executeWithRuntime(cmd, true, func(r *runtime.RuntimeComponents) error {
			ec := r.Config.Eval
			modelName := r.Config.Models.Eval

			lockTimeout, err := config.DurationOrDefault(ec.LockTimeout, config.DefaultEvalLockTimeout)
			if err != nil {
				return fmt.Errorf("eval.lock_timeout: %w", err)
			}

			generator := eval.NewGenerator(r.Invoker, eval.GeneratorConfig{
				Model:      modelName,
				MaxTokens:  ec.MaxTokens,
				Topic:      ec.Topic,
				MaxRetries: ec.MaxParseRetries,
			})

			var dataset []eval.TestCase
			if regenerate {
				dataset, err = generator.Generate(r.Ctx, config.IntOrDefault(ec.DatasetSize, config.DefaultEvalDatasetSize))
				if err == nil {
					err = eval.SaveDataset(ec.DatasetPath, dataset)
				}
			} else {
				dataset, err = generator.LoadOrGenerate(r.Ctx, ec.DatasetPath, config.IntOrDefault(ec.DatasetSize, config.DefaultEvalDatasetSize))
			}
			if err != nil {
				return err
			}

			harness := eval.NewHarness(
				eval.NewRunner(r.Invoker, modelName, ec.MaxTokens),
				eval.NewSyntaxGrader(),
				eval.NewModelGrader(r.Invoker, eval.ModelGraderConfig{
					Model:      modelName,
					MaxTokens:  ec.MaxTokens,
					Topic:      ec.Topic,
					MaxRetries: ec.MaxParseRetries,
				}),
				eval.HarnessConfig{
					ResultsPath: ec.ResultsPath,
					Concurrency: ec.Concurrency,
					LockTimeout: lockTimeout,
				},
			)

			report, err := harness.Run(r.Ctx, dataset)
			if err != nil {
				return err
			}

			if err := printReport(cmd, report); err != nil {
				return err
			}
			if report.SaveErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error saving eval results: %v\n", report.SaveErr)
			}
			return nil
		})
	},
}

var evalReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a saved results file",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		results, err := eval.LoadResults(loadedCfg.Eval.ResultsPath)
		if err != nil {
			return err
		}
		average, err := eval.Mean(results)
		if err != nil {
			return err
		}

		return printReport(cmd, &eval.Report{Results: results, Average: average})
	},
}

func printReport(cmd *cobra.Command, report *eval.Report) error {
	f, err := formatterFor(cmd)
	if err != nil {
		return err
	}
	out, err := f.FormatReport(report)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.AddCommand(evalReportCmd)

	evalCmd.PersistentFlags().String("eval.dataset_path", config.DefaultEvalDatasetPath, "dataset file")
	evalCmd.PersistentFlags().String("eval.results_path", config.DefaultEvalResultsPath, "results file")
	evalCmd.Flags().Int("eval.dataset_size", config.DefaultEvalDatasetSize, "test cases to generate")
	evalCmd.Flags().String("eval.topic", config.DefaultEvalTopic, "domain of the generated tasks")
	evalCmd.Flags().Int("eval.concurrency", config.DefaultEvalConcurrency, "test cases evaluated in parallel")
	evalCmd.Flags().Bool("regenerate", false, "generate a new dataset even if the file exists")
	addOutputFlag(evalCmd)
	addOutputFlag(evalReportCmd)
}
