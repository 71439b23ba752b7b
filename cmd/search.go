package cmd

import (
	"github.com/spf13/cobra"

	"mnemograph/internal/engine"
	"mnemograph/internal/model"
)

var (
	searchTopK      int
	searchThreshold float64
	searchKind      string
	searchProto     string
	searchLabelOnly bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank entities against a query by embedding similarity",
	Long: `Embeds the query text and ranks entities by cosine similarity.
With --label-only the query falls back to substring matching on labels,
which reports a sentinel score instead of a similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		topK := searchTopK
		if topK == 0 {
			topK = cfg.Search.TopK
		}

		query := engine.SearchQuery{
			Text:          args[0],
			TopK:          topK,
			Kind:          model.Kind(searchKind),
			PrototypeUUID: searchProto,
		}
		// An explicit --threshold always applies, even at zero. Otherwise the
		// config cutoff kicks in when one is set.
		if cmd.Flags().Changed("threshold") {
			query.Threshold = &searchThreshold
		} else if cfg.Search.Threshold != 0 {
			query.Threshold = &cfg.Search.Threshold
		}
		if !searchLabelOnly {
			query.Vector, err = eng.EmbedText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
		}

		results, err := eng.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "Max results (0 = config default)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Trim results below this similarity")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "Restrict to a kind")
	searchCmd.Flags().StringVar(&searchProto, "proto", "", "Restrict to instances of a prototype uuid")
	searchCmd.Flags().BoolVar(&searchLabelOnly, "label-only", false, "Substring match on labels instead of embedding the query")

	rootCmd.AddCommand(searchCmd)
}
