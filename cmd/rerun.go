package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"track-resolver/core/reconcile"
	"track-resolver/core/scheduler"

	"github.com/spf13/cobra"
)

var rerunState string

// rerunCmd represents the rerun command
var rerunCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Re-resolve every stored track in a state",
	Long: `Runs an explicit re-resolution pass over the records currently in --state.
Placeholders that now resolve replace their synthetic title and duration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := reconcile.ParseState(rerunState)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer svc.close()

		sched, err := svc.newScheduler(applyRunFlags(cmd))
		if err != nil {
			return err
		}

		report, err := sched.Rerun(ctx, state, scheduler.RunOptions{})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report, resolveFlags.reasons))
		if report.Cancelled {
			return context.Canceled
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(rerunCmd)
	rerunCmd.Flags().StringVar(&rerunState, "state", string(reconcile.StatePlaceholder), "State to re-resolve (unresolved, failed, placeholder, resolved)")
	addRunFlags(rerunCmd)
}
