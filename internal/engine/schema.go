package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mnemograph/internal/model"
)

// maxInheritanceDepth bounds the is_a walk. The graph is meant to be a DAG
// but edge insertion does not check for cycles, so the traversal guards
// itself with a visited set and a depth cap.
const maxInheritanceDepth = 32

// ResolveSchema produces the effective property declarations of a prototype:
// the union of its own declarations and those of every ancestor reached by
// following is_a edges, breadth-first, parents in declared order. On a name
// collision the declaration discovered earlier wins. A missing prototype
// referenced by is_a contributes nothing.
func (e *Engine) ResolveSchema(ctx context.Context, prototypeUUID string) ([]PropertyDef, error) {
	var defs []PropertyDef
	seen := map[string]bool{}
	visited := map[string]bool{}

	queue := []string{prototypeUUID}
	for depth := 0; len(queue) > 0 && depth < maxInheritanceDepth; depth++ {
		var next []string
		for _, uuid := range queue {
			if visited[uuid] {
				continue
			}
			visited[uuid] = true

			proto, err := e.store.GetEntity(ctx, uuid)
			if err != nil {
				return nil, err
			}
			if proto == nil {
				e.log.Debug("prototype missing, skipping contribution", zap.String("uuid", uuid))
				continue
			}

			contributed, err := e.declaredProperties(ctx, proto)
			if err != nil {
				return nil, err
			}
			for _, def := range contributed {
				if seen[def.Name] {
					continue // first writer wins
				}
				seen[def.Name] = true
				defs = append(defs, def)
			}

			parents, err := e.store.AssociationsFrom(ctx, uuid, model.RelIsA)
			if err != nil {
				return nil, err
			}
			for _, p := range parents {
				next = append(next, p.To)
			}
		}
		queue = next
	}
	return defs, nil
}

// declaredProperties loads the property entities a prototype declares
// through has_prop edges, in edge order.
func (e *Engine) declaredProperties(ctx context.Context, proto *model.Entity) ([]PropertyDef, error) {
	edges, err := e.store.AssociationsFrom(ctx, proto.UUID, model.RelHasProp)
	if err != nil {
		return nil, err
	}
	var defs []PropertyDef
	for _, edge := range edges {
		prop, err := e.store.GetEntity(ctx, edge.To)
		if err != nil {
			return nil, err
		}
		if prop == nil || !prop.Marked(model.MarkProperty) {
			continue
		}
		def := PropertyDef{Name: prop.Label(), Origin: proto.UUID}
		if v, ok := prop.Properties["valueType"]; ok && v.Type == model.TypeString {
			def.Type = model.ValueType(v.Str)
		}
		if v, ok := prop.Properties["default"]; ok {
			d := v
			def.Default = &d
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// HydrateConcept resolves a concept's effective property values: inherited
// defaults from its prototype's schema, overridden by the concept's own
// explicit values.
func (e *Engine) HydrateConcept(ctx context.Context, conceptUUID string) (map[string]model.Value, error) {
	concept, err := e.store.GetEntity(ctx, conceptUUID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, nil
	}

	hydrated := map[string]model.Value{}

	protos, err := e.store.AssociationsFrom(ctx, conceptUUID, model.RelInstanceOf)
	if err != nil {
		return nil, err
	}
	if len(protos) > 0 {
		defs, err := e.ResolveSchema(ctx, protos[0].To)
		if err != nil {
			return nil, fmt.Errorf("resolving schema for concept %s: %w", conceptUUID, err)
		}
		for _, def := range defs {
			if def.Default != nil {
				hydrated[def.Name] = *def.Default
			}
		}
	}

	for k, v := range concept.Properties {
		hydrated[k] = v
	}
	return hydrated, nil
}
