package cmd

import (
	"github.com/spf13/cobra"

	"mnemograph/internal/model"
)

var versionSource string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Link and inspect entity version chains",
}

var versionLinkCmd = &cobra.Command{
	Use:   "link <old-uuid> <new-uuid>",
	Short: "Record that one entity supersedes another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return eng.NewVersion(cmd.Context(), args[0], args[1], model.Prov(versionSource))
	},
}

var versionListCmd = &cobra.Command{
	Use:   "list <uuid>",
	Short: "Walk the version chain forward from an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		chain, err := eng.Versions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(chain)
	},
}

func init() {
	versionCmd.PersistentFlags().StringVar(&versionSource, "source", "user", "Provenance source")
	versionCmd.AddCommand(versionLinkCmd, versionListCmd)
	rootCmd.AddCommand(versionCmd)
}
