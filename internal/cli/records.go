package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordsCmd() *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect completed game records",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent game records",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []GameRecord

			path := fmt.Sprintf("/api/v1/records?limit=%d", limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to return")

	getCmd := &cobra.Command{
		Use:   "get <record-id>",
		Short: "Show one game record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameRecord

			if err := client.Get("/api/v1/records/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	recordsCmd.AddCommand(listCmd)
	recordsCmd.AddCommand(getCmd)
	return recordsCmd
}
