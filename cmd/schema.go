package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mnemograph/internal/engine"
	"mnemograph/internal/model"
)

var (
	protoParents []string
	protoDefs    []string
	protoSource  string

	conceptProto  string
	conceptProps  []string
	conceptSource string
)

var prototypeCmd = &cobra.Command{
	Use:   "prototype",
	Short: "Create and inspect prototypes",
}

var prototypeCreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create a prototype with optional parents and property declarations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		defs, err := parsePropertyDefs(protoDefs)
		if err != nil {
			return err
		}
		proto, err := eng.CreatePrototype(cmd.Context(), args[0], protoParents, defs, model.Prov(protoSource))
		if err != nil {
			return err
		}
		return printJSON(proto)
	},
}

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Create and inspect concepts",
}

var conceptCreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create a concept as an instance of a prototype",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		props, err := parseProps(conceptProps)
		if err != nil {
			return err
		}
		concept, err := eng.CreateConcept(cmd.Context(), args[0], conceptProto, props, model.Prov(conceptSource))
		if err != nil {
			return err
		}
		return printJSON(concept)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema <prototype-uuid>",
	Short: "Resolve a prototype's effective property declarations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		defs, err := eng.ResolveSchema(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(defs)
	},
}

var hydrateCmd = &cobra.Command{
	Use:   "hydrate <concept-uuid>",
	Short: "Resolve a concept's effective property values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		values, err := eng.HydrateConcept(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if values == nil {
			return fmt.Errorf("concept %s not found", args[0])
		}
		return printJSON(values)
	},
}

// parsePropertyDefs parses declarations of the form name, name:type or
// name:type=default.
func parsePropertyDefs(args []string) ([]engine.PropertyDef, error) {
	var defs []engine.PropertyDef
	for _, arg := range args {
		def := engine.PropertyDef{Type: model.TypeString}
		spec := arg
		if eq := strings.Index(spec, "="); eq >= 0 {
			raw := spec[eq+1:]
			spec = spec[:eq]
			if colon := strings.Index(spec, ":"); colon >= 0 {
				def.Type = model.ValueType(spec[colon+1:])
			}
			v, err := parseValue(def.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("declaration %q: %w", arg, err)
			}
			def.Default = &v
		}
		if colon := strings.Index(spec, ":"); colon >= 0 {
			def.Type = model.ValueType(spec[colon+1:])
			spec = spec[:colon]
		}
		if spec == "" {
			return nil, fmt.Errorf("declaration %q: empty name", arg)
		}
		def.Name = spec
		defs = append(defs, def)
	}
	return defs, nil
}

func init() {
	prototypeCreateCmd.Flags().StringArrayVar(&protoParents, "parent", nil, "Parent prototype uuid (repeatable, declared order matters)")
	prototypeCreateCmd.Flags().StringArrayVar(&protoDefs, "prop", nil, "Property declaration as name, name:type or name:type=default (repeatable)")
	prototypeCreateCmd.Flags().StringVar(&protoSource, "source", "user", "Provenance source")

	conceptCreateCmd.Flags().StringVar(&conceptProto, "proto", "", "Prototype uuid")
	conceptCreateCmd.Flags().StringArrayVar(&conceptProps, "prop", nil, "Property as key=value or key:type=value (repeatable)")
	conceptCreateCmd.Flags().StringVar(&conceptSource, "source", "user", "Provenance source")
	_ = conceptCreateCmd.MarkFlagRequired("proto")

	prototypeCmd.AddCommand(prototypeCreateCmd)
	conceptCmd.AddCommand(conceptCreateCmd)
	rootCmd.AddCommand(prototypeCmd, conceptCmd, schemaCmd, hydrateCmd)
}
