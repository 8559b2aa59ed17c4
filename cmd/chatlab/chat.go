package main

import (
	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/harunnryd/chatlab/internal/chat"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start a message loop over the default model. Lines starting with '/' are
commands: /system, /temperature, /stop, /prefill, /stream, /history, /reset, /exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, true, func(r *runtime.RuntimeComponents) error {
			session := chat.NewSession(r.Invoker,
				chat.FromConfig(r.Config.Chat),
				chat.WithModel(r.Config.Models.Default),
			)

			repl := runtime.NewREPL(session, cmd.InOrStdin(), cmd.OutOrStdout(), r.Config.Chat.Stream)
			return repl.Start(r.Ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("chat.system", "", "system prompt")
	chatCmd.Flags().Float64("chat.temperature", 0, "sampling temperature in [0,1]")
	chatCmd.Flags().Bool("chat.stream", false, "stream replies as they are generated")
}
