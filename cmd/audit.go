package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report entities whose aggregated embeddings are missing or stale",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := eng.EmbeddingStaleness(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
