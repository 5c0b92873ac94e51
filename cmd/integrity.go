package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"track-resolver/core/reconcile"
	"track-resolver/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var integrityFix bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the snapshot backend",
	Long: `Checks the configured snapshot backend: the bucket and snapshot object for s3,
the resolved_tracks schema for database, the snapshot file for file.
With --fix the bucket is created or the table migrated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer svc.close()

		checker := integrity.NewService(svc.objects, svc.cfg.Storage, svc.db, svc.cfg.Snapshot, svc.logger)
		var rows [][]string

		switch checker.Backend() {
		case reconcile.BackendObject:
			if integrityFix {
				if err := checker.FixStorage(ctx); err != nil {
					return err
				}
			}
			report, err := checker.CheckStorage(ctx)
			if err != nil {
				return err
			}
			rows = [][]string{
				{"Bucket", report.Bucket},
				{"Bucket exists", strconv.FormatBool(report.BucketExists)},
				{"Object", report.Object},
				{"Object exists", strconv.FormatBool(report.ObjectExists)},
				{"Size", strconv.FormatInt(report.Size, 10)},
				{"Status", report.Status},
			}

		case reconcile.BackendDatabase:
			if integrityFix {
				if err := checker.FixDatabase(ctx); err != nil {
					return err
				}
			}
			report, err := checker.CheckDatabase()
			if err != nil {
				return err
			}
			rows = [][]string{
				{"Table", report.Table},
				{"Matched", strconv.FormatBool(report.Matched)},
				{"Missing columns", strings.Join(report.MissingColumns, ", ")},
				{"Type mismatches", strings.Join(report.TypeMismatches, ", ")},
				{"Errors", strings.Join(report.Errors, ", ")},
				{"Status", report.Status},
			}

		default:
			report := checker.CheckFile(ctx)
			rows = [][]string{
				{"Path", report.Path},
				{"Exists", strconv.FormatBool(report.Exists)},
				{"Records", strconv.Itoa(report.Records)},
				{"Error", report.Error},
				{"Status", report.Status},
			}
		}

		counts := svc.store.Counts()
		for _, st := range reconcile.States {
			rows = append(rows, []string{"Records " + string(st), strconv.Itoa(counts[st])})
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Value"}, rows, nil))
		svc.logger.Info("Integrity check completed", zap.String("backend", checker.Backend()))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.Flags().BoolVar(&integrityFix, "fix", false, "Create the bucket or migrate the table")
}
