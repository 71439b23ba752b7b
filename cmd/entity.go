package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

var (
	entityProps  []string
	entitySource string
	entityKind   string
	entityMarker string
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Create and inspect entities",
}

var entityCreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create a plain entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		props, err := parseProps(entityProps)
		if err != nil {
			return err
		}
		ent, err := eng.CreateEntity(cmd.Context(), args[0], props, model.Prov(entitySource))
		if err != nil {
			return err
		}
		return printJSON(ent)
	},
}

var entityGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Fetch an entity by uuid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		ent, err := eng.GetEntity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ent == nil {
			return fmt.Errorf("entity %s not found", args[0])
		}
		return printJSON(ent)
	},
}

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities, optionally filtered by kind or marker",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		entities, err := eng.Store().Entities(cmd.Context(), store.EntityFilter{
			Kind:   model.Kind(entityKind),
			Marker: entityMarker,
		})
		if err != nil {
			return err
		}
		return printJSON(entities)
	},
}

var entityDeprecateCmd = &cobra.Command{
	Use:   "deprecate <uuid>",
	Short: "Mark an entity deprecated (nothing is deleted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return eng.Deprecate(cmd.Context(), args[0], model.Prov(entitySource))
	},
}

func init() {
	entityCreateCmd.Flags().StringArrayVar(&entityProps, "prop", nil, "Property as key=value or key:type=value (repeatable)")
	entityListCmd.Flags().StringVar(&entityKind, "kind", "", "Filter by kind (entity, assertion, fact)")
	entityListCmd.Flags().StringVar(&entityMarker, "marker", "", "Filter by marker property, e.g. isPrototype")
	entityCmd.PersistentFlags().StringVar(&entitySource, "source", "user", "Provenance source")

	entityCmd.AddCommand(entityCreateCmd, entityGetCmd, entityListCmd, entityDeprecateCmd)
	rootCmd.AddCommand(entityCmd)
}
