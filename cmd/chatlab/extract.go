package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/spf13/cobra"
)

const extractPrompt = "Analyze the following document and record the result with the %s tool.\n\n<document>\n%s\n</document>"

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured data by forcing a tool call",
	Long: `Read a document from the file argument or stdin and force the model to call
the chosen extraction tool. The tool input, validated against its schema, is
printed as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolName, _ := cmd.Flags().GetString("tool")

		document, err := readDocument(cmd, args)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, true, func(r *runtime.RuntimeComponents) error {
			if _, ok := r.ToolRegistry.Get(toolName); !ok {
				return chatErrors.UnknownTool(toolName)
			}

			resp, err := r.Invoker.Chat(r.Ctx, contract.CompletionRequest{
				Model:      r.Config.Models.Default,
				Messages:   []contract.Message{contract.UserText(fmt.Sprintf(extractPrompt, toolName, document))},
				MaxTokens:  r.Config.Chat.MaxTokens,
				Tools:      r.ToolRegistry.Schemas(toolName),
				ToolChoice: &contract.ToolChoice{Mode: contract.ToolChoiceTool, Name: toolName},
			})
			if err != nil {
				return err
			}

			uses := contract.ToolUses(resp.Content)
			if len(uses) == 0 {
				return fmt.Errorf("model did not call %s (stop reason %s)", toolName, resp.StopReason)
			}

			result, err := r.Dispatcher.Dispatch(r.Ctx, uses[0].Name, uses[0].Input)
			if err != nil {
				return err
			}

			pretty, err := json.MarshalIndent(json.RawMessage(result), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
			return nil
		})
	},
}

func readDocument(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	document := strings.TrimSpace(string(data))
	if document == "" {
		return "", chatErrors.InvalidInput("document is empty")
	}
	return document, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("tool", "article_summary", "extraction tool to force (article_summary, analyze_financial_statement)")
}
