package main

import (
	"context"
	"fmt"
	"time"

	"github.com/harunnryd/chatlab/cmd/chatlab/runtime"

	"github.com/harunnryd/chatlab/internal/reminder"

	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Inspect reminders recorded by set_reminder",
}

var remindersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		upcoming, _ := cmd.Flags().GetBool("upcoming")

		return executeWithRuntime(cmd, false, func(r *runtime.RuntimeComponents) error {
			list := r.Reminders.List
			if upcoming {
				list = func(ctx context.Context) ([]reminder.Reminder, error) {
					return r.Reminders.Upcoming(ctx, time.Now())
				}
			}
			reminders, err := list(r.Ctx)
			if err != nil {
				return err
			}

			f, err := formatterFor(cmd)
			if err != nil {
				return err
			}
			out, err := f.FormatReminders(reminders)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(remindersCmd)
	remindersCmd.AddCommand(remindersListCmd)
	remindersCmd.PersistentFlags().String("reminders.store_path", "", "reminder store file")
	remindersListCmd.Flags().Bool("upcoming", false, "only reminders that fire in the future")
	addOutputFlag(remindersListCmd)
}
