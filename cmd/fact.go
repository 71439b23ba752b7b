package cmd

import (
	"github.com/spf13/cobra"

	"mnemograph/internal/model"
)

var (
	factStatus     string
	factConfidence float64
	factSource     string
	verifyThresh   float64
)

var factCmd = &cobra.Command{
	Use:   "fact",
	Short: "Store and verify facts",
}

var factAddCmd = &cobra.Command{
	Use:   "add <subject> <predicate> <object>",
	Short: "Store a normalized fact triple with an audit assertion",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		fact, err := eng.StoreFact(cmd.Context(), args[0], args[1], args[2],
			model.FactStatus(factStatus), factConfidence, factSource, model.Prov(factSource))
		if err != nil {
			return err
		}
		return printJSON(fact)
	},
}

var factVerifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Match a natural-language claim against stored facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		threshold := verifyThresh
		if threshold == 0 {
			threshold = cfg.Verify.Threshold
		}
		result, err := eng.Verify(cmd.Context(), args[0], threshold)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	factAddCmd.Flags().StringVar(&factStatus, "status", "verified", "Fact status (verified, refuted, unverified)")
	factAddCmd.Flags().Float64Var(&factConfidence, "confidence", 1.0, "Fact confidence in [0,1]")
	factAddCmd.Flags().StringVar(&factSource, "source", "user", "Provenance source")
	factVerifyCmd.Flags().Float64Var(&verifyThresh, "threshold", 0, "Similarity cutoff (0 = config default)")

	factCmd.AddCommand(factAddCmd, factVerifyCmd)
	rootCmd.AddCommand(factCmd)
}
