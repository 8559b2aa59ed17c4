package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/harunnryd/chatlab/internal/chat"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a single request",
	Long: `Send one user message and print the reply. Repeat --temperature to compare
replies across temperatures. --prefill seeds the assistant turn and --stop ends
generation at the given sequences.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")
		system, _ := cmd.Flags().GetString("system")
		temperatures, _ := cmd.Flags().GetFloat64Slice("temperature")
		stops, _ := cmd.Flags().GetStringSlice("stop")
		prefill, _ := cmd.Flags().GetString("prefill")
		stream, _ := cmd.Flags().GetBool("stream")
		maxTokens, _ := cmd.Flags().GetInt("max-tokens")

		return executeWithRuntime(cmd, true, func(r *runtime.RuntimeComponents) error {
			out := cmd.OutOrStdout()
			if len(temperatures) == 0 {
				temperatures = []float64{r.Config.Chat.Temperature}
			}

			for i, temperature := range temperatures {
				opts := []chat.Option{
					chat.FromConfig(r.Config.Chat),
					chat.WithModel(r.Config.Models.Default),
					chat.WithTemperature(temperature),
					chat.WithStopSequences(stops...),
				}
				if system != "" {
					opts = append(opts, chat.WithSystem(system))
				}
				if maxTokens > 0 {
					opts = append(opts, chat.WithMaxTokens(maxTokens))
				}
				session := chat.NewSession(r.Invoker, opts...)
				session.Prefill(prefill)

				if len(temperatures) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "--- temperature %.2f ---\n", temperature)
				}

				fmt.Fprint(out, prefill)
				var (
					resp *contract.CompletionResponse
					err  error
				)
				if stream {
					resp, err = session.SendStream(r.Ctx, prompt, out)
				} else {
					resp, err = session.Send(r.Ctx, prompt)
					if err == nil {
						fmt.Fprint(out, resp.Text())
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(out)

				slog.Debug("Reply finished", "stop_reason", resp.StopReason, "stop_sequence", resp.StopSequence,
					"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().String("system", "", "system prompt")
	askCmd.Flags().Float64Slice("temperature", nil, "sampling temperature in [0,1]; repeat to compare")
	askCmd.Flags().StringSlice("stop", nil, "stop sequence; repeat for several")
	askCmd.Flags().String("prefill", "", "text the assistant reply starts with")
	askCmd.Flags().Bool("stream", false, "stream the reply as it is generated")
	askCmd.Flags().Int("max-tokens", 0, "maximum tokens to generate")
}
