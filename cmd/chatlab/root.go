package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/chatlab/internal/config"
	"github.com/harunnryd/chatlab/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chatlab",
	Short: "LLM chat API workbench",
	Long: `chatlab exercises a hosted chat completion API: interactive chat, one-shot
requests with output control, a tool-calling agent loop, structured extraction
and a prompt evaluation harness.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Log.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chatlab/config.yaml)")
	rootCmd.PersistentFlags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("models.default", config.DefaultModelDefault, "model used by chat, ask, agent and extract")
	rootCmd.PersistentFlags().String("models.eval", config.DefaultModelEval, "model used by eval")
}
