package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/harunnryd/chatlab/internal/conversation"
	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/spf13/cobra"
)

const defaultAgentPrompt = `Set two reminders for Jan 1, 2025 at 8AM:
* I have a doctors appointment
* Taxes are due`

var defaultAgentTools = []string{"get_current_datetime", "add_duration_to_datetime", "set_reminder", "batch_tool"}

var agentCmd = &cobra.Command{
	Use:   "agent [prompt]",
	Short: "Run a tool-calling conversation",
	Long: `Send the prompt with the selected tools advertised and keep answering the
model's tool calls until it produces a final reply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			prompt = defaultAgentPrompt
		}
		toolNames, _ := cmd.Flags().GetStringSlice("tools")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return executeWithRuntime(cmd, true, func(r *runtime.RuntimeComponents) error {
			for _, name := range toolNames {
				if _, ok := r.ToolRegistry.Get(name); !ok {
					return chatErrors.UnknownTool(name)
				}
			}

			driver := conversation.NewDriver(r.Invoker, r.Dispatcher,
				conversation.FromConfig(r.Config.Conversation),
				conversation.WithModel(r.Config.Models.Default),
				conversation.WithTools(r.ToolRegistry.Schemas(toolNames...)...),
			)

			out := cmd.OutOrStdout()
			if !quiet {
				driver.SetObserver(traceTurn(cmd.ErrOrStderr()))
			}

			result, err := driver.Run(r.Ctx, []contract.Message{contract.UserText(prompt)})
			if err != nil {
				if errors.Is(err, chatErrors.ErrMaxRounds) && result != nil {
					fmt.Fprintf(out, "%s\n", result.Messages[len(result.Messages)-1].Text())
				}
				return err
			}

			fmt.Fprintln(out, result.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "(%d rounds, %d input / %d output tokens)\n",
				result.Rounds, result.Usage.InputTokens, result.Usage.OutputTokens)
			return nil
		})
	},
}

// traceTurn prints tool calls and their results as the conversation runs.
func traceTurn(w io.Writer) conversation.Observer {
	return func(next conversation.State, msg contract.Message) {
		for _, block := range msg.Content {
			switch block.Type {
			case contract.BlockToolUse:
				fmt.Fprintf(w, "-> %s %s\n", block.Name, string(block.Input))
			case contract.BlockToolResult:
				marker := "<-"
				if block.IsError {
					marker = "<!"
				}
				fmt.Fprintf(w, "%s %s\n", marker, block.Content)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.Flags().StringSlice("tools", defaultAgentTools, "tools advertised to the model")
	agentCmd.Flags().Int("conversation.max_rounds", 0, "maximum chat calls per conversation")
	agentCmd.Flags().String("conversation.system", "", "system prompt")
	agentCmd.Flags().BoolP("quiet", "q", false, "do not print tool calls")
}
