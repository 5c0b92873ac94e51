package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var showJSON bool

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show FEED_ID ITEM_ID",
	Short: "Print the stored record for one reference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.close()

		track, err := svc.store.Get(args[0], args[1])
		if err != nil {
			return err
		}

		if showJSON {
			data, err := json.MarshalIndent(track, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal track: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTrack(track))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the record as JSON")
}
