package cmd

import (
	"github.com/spf13/cobra"

	"mnemograph/internal/model"
)

var (
	assocWeight     float64
	assocConfidence float64
	assocSource     string
)

var associateCmd = &cobra.Command{
	Use:   "associate <from-uuid> <to-uuid> <relation-type>",
	Short: "Create a directed weighted association between two entities",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		a, err := eng.Associate(cmd.Context(), args[0], args[1], args[2],
			assocWeight, assocConfidence, model.Prov(assocSource))
		if err != nil {
			return err
		}
		return printJSON(a)
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Manage entity embeddings",
}

var embedRefreshCmd = &cobra.Command{
	Use:   "refresh <uuid>",
	Short: "Recompute and persist an entity's aggregated embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		vec, err := eng.RefreshEmbedding(cmd.Context(), args[0], model.Prov("system"))
		if err != nil {
			return err
		}
		return printJSON(struct {
			UUID      string `json:"uuid"`
			Dimension int    `json:"dimension"`
			Updated   bool   `json:"updated"`
		}{args[0], len(vec), vec != nil})
	},
}

func init() {
	associateCmd.Flags().Float64Var(&assocWeight, "weight", 1.0, "Edge weight in [0,1]")
	associateCmd.Flags().Float64Var(&assocConfidence, "confidence", 1.0, "Edge confidence in [0,1]")
	associateCmd.Flags().StringVar(&assocSource, "source", "user", "Provenance source")

	embedCmd.AddCommand(embedRefreshCmd)
	rootCmd.AddCommand(associateCmd, embedCmd)
}
