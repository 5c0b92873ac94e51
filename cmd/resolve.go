package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"track-resolver/core/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resolveFlags struct {
	input       string
	batchSize   int
	concurrency int
	retries     int
	force       bool
	reasons     int
}

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve remote item references into tracks",
	Long: `Reads remote item references and resolves each one into a playable track,
falling back to feed documents, fragment matching and finally a placeholder.
References already settled in the store are skipped unless --force is set.

Input is a JSON array of {"feedId","itemId"} objects or "feedId,itemId" lines.
Use --input - to read from stdin. Ctrl-C stops the run after in-flight items
finish; the store is checkpointed either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := readRefs(cmd.InOrStdin(), resolveFlags.input)
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

		svc.logger.Info("Resolving references", zap.Int("refs", len(refs)))
		report, err := sched.Run(ctx, refs, scheduler.RunOptions{Force: resolveFlags.force})
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

func readRefs(stdin io.Reader, path string) ([]scheduler.Ref, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	if path == "-" {
		return parseRefs(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return parseRefs(f)
}

// applyRunFlags returns the scheduler overrides for flags set on cmd.
func applyRunFlags(cmd *cobra.Command) func(*scheduler.Config) {
	return func(c *scheduler.Config) {
		if cmd.Flags().Changed("batch-size") {
			c.BatchSize = resolveFlags.batchSize
		}
		if cmd.Flags().Changed("concurrency") {
			c.Concurrency = resolveFlags.concurrency
		}
		if cmd.Flags().Changed("retries") {
			c.MaxRetries = resolveFlags.retries
		}
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&resolveFlags.batchSize, "batch-size", 0, "Items per batch (overrides SCHEDULER_BATCH_SIZE)")
	cmd.Flags().IntVar(&resolveFlags.concurrency, "concurrency", 0, "Workers per batch (overrides SCHEDULER_CONCURRENCY)")
	cmd.Flags().IntVar(&resolveFlags.retries, "retries", 0, "Retries per item on transient errors (overrides SCHEDULER_MAX_RETRIES)")
	cmd.Flags().IntVar(&resolveFlags.reasons, "reasons", 20, "Unresolved items listed in the report")
}

func init() {
	RootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveFlags.input, "input", "i", "", "Reference file, or - for stdin")
	resolveCmd.Flags().BoolVar(&resolveFlags.force, "force", false, "Re-resolve references that are already settled")
	addRunFlags(resolveCmd)
}
