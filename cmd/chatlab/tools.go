package main

import (
	"fmt"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools available to the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, false, func(r *runtime.RuntimeComponents) error {
			f, err := formatterFor(cmd)
			if err != nil {
				return err
			}
			out, err := f.FormatTools(r.ToolRegistry.GetDescriptors())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	addOutputFlag(toolsCmd)
}
