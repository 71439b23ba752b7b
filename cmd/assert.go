package cmd

import (
	"github.com/spf13/cobra"

	"mnemograph/internal/model"
)

var (
	assertTruth  float64
	assertSource string
	assertType   string
)

var assertCmd = &cobra.Command{
	Use:   "assert <subject-uuid> <predicate> <object>",
	Short: "Append a truth-scored claim about an entity's property",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		object, err := parseValue(model.ValueType(assertType), args[2])
		if err != nil {
			return err
		}
		a, err := eng.CreateAssertion(cmd.Context(), args[0], args[1], object,
			assertTruth, assertSource, model.Prov(assertSource))
		if err != nil {
			return err
		}
		return printJSON(a)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <entity-uuid>",
	Short: "Resolve competing assertions into one canonical value per predicate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		snapshot, err := eng.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(snapshot)
	},
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence <entity-uuid> [predicate]",
	Short: "List every competing assertion in resolution order",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		predicate := ""
		if len(args) == 2 {
			predicate = args[1]
		}
		evidence, err := eng.Evidence(cmd.Context(), args[0], predicate)
		if err != nil {
			return err
		}
		return printJSON(evidence)
	},
}

func init() {
	assertCmd.Flags().Float64Var(&assertTruth, "truth", 1.0, "Truth score in [0,1]")
	assertCmd.Flags().StringVar(&assertSource, "source", "user", "Claim source")
	assertCmd.Flags().StringVar(&assertType, "type", "string", "Object value type")

	rootCmd.AddCommand(assertCmd, snapshotCmd, evidenceCmd)
}
