// Package engine implements the resolution and retrieval core: schema
// inheritance across the prototype graph, embedding aggregation, similarity
// search, assertion resolution and fact verification. Storage and the
// embedding function are injected collaborators.
package engine

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"mnemograph/internal/embedder"
	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

// Engine ties the storage backend and the embedding collaborator together.
// All operations are request-scoped: no background work, no locks. Compound
// writes (a concept plus its instanceOf edge) are sequential single writes
// with no rollback; a failure mid-sequence leaves a partially-linked graph
// for the caller to inspect.
type Engine struct {
	store         store.Store
	embed         embedder.Func
	log           *zap.Logger
	contradiction ContradictionChecker
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger; the engine logs non-fatal skips at debug.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithContradictionChecker replaces the default textual heuristic.
func WithContradictionChecker(c ContradictionChecker) Option {
	return func(e *Engine) { e.contradiction = c }
}

// New creates an engine. embed may be nil, in which case operations that
// need to embed text (label fallback, fact verification) degrade to nil
// vectors.
func New(st store.Store, embed embedder.Func, opts ...Option) *Engine {
	e := &Engine{
		store:         st,
		embed:         embed,
		log:           zap.NewNop(),
		contradiction: &TextualContradiction{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the backend for callers that need raw access.
func (e *Engine) Store() store.Store { return e.store }

// CreateEntity creates and persists a plain entity.
func (e *Engine) CreateEntity(ctx context.Context, label string, props map[string]model.Value, prov model.Provenance) (*model.Entity, error) {
	if label == "" {
		return nil, validationf("label", "must not be empty")
	}
	ent := model.NewEntity(label)
	for k, v := range props {
		if err := v.Validate(); err != nil {
			return nil, validationf("properties."+k, "%v", err)
		}
		ent.Properties[k] = v
	}
	if err := e.store.UpsertEntity(ctx, ent, prov); err != nil {
		return nil, err
	}
	return ent, nil
}

// PropertyDef is a property declaration contributed by a prototype.
type PropertyDef struct {
	Name    string          `json:"name"`
	Type    model.ValueType `json:"type"`
	Default *model.Value    `json:"default,omitempty"`
	Origin  string          `json:"origin"` // uuid of the declaring prototype
}

// CreatePrototype creates a schema entity, links it to its parents via is_a
// edges in declared order, and materializes its property declarations as
// has_prop-linked property entities.
func (e *Engine) CreatePrototype(ctx context.Context, label string, parents []string, defs []PropertyDef, prov model.Provenance) (*model.Entity, error) {
	if label == "" {
		return nil, validationf("label", "must not be empty")
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, validationf("properties", "property declaration requires a name")
		}
		if def.Default != nil {
			if err := def.Default.Validate(); err != nil {
				return nil, validationf("properties."+def.Name, "%v", err)
			}
		}
	}

	proto := model.NewEntity(label)
	proto.Mark(model.MarkPrototype)
	if err := e.store.UpsertEntity(ctx, proto, prov); err != nil {
		return nil, err
	}

	for _, parent := range parents {
		if err := e.associate(ctx, proto.UUID, parent, model.RelIsA, 1, 1, prov); err != nil {
			return nil, fmt.Errorf("linking prototype to parent %s: %w", parent, err)
		}
	}

	for _, def := range defs {
		prop := model.NewEntity(def.Name)
		prop.Mark(model.MarkProperty)
		if def.Type != "" {
			prop.Properties["valueType"] = model.String(string(def.Type))
		}
		if def.Default != nil {
			prop.Properties["default"] = *def.Default
		}
		if err := e.store.UpsertEntity(ctx, prop, prov); err != nil {
			return nil, fmt.Errorf("creating property %s: %w", def.Name, err)
		}
		if err := e.associate(ctx, proto.UUID, prop.UUID, model.RelHasProp, 1, 1, prov); err != nil {
			return nil, fmt.Errorf("linking property %s: %w", def.Name, err)
		}
	}

	return proto, nil
}

// CreateConcept creates an instance of a prototype. The concept's own
// property values override inherited defaults at hydration time.
func (e *Engine) CreateConcept(ctx context.Context, label, prototypeUUID string, props map[string]model.Value, prov model.Provenance) (*model.Entity, error) {
	if label == "" {
		return nil, validationf("label", "must not be empty")
	}
	if prototypeUUID == "" {
		return nil, validationf("prototype", "must not be empty")
	}

	concept := model.NewEntity(label)
	concept.Mark(model.MarkConcept)
	for k, v := range props {
		if err := v.Validate(); err != nil {
			return nil, validationf("properties."+k, "%v", err)
		}
		concept.Properties[k] = v
	}
	if err := e.store.UpsertEntity(ctx, concept, prov); err != nil {
		return nil, err
	}
	if err := e.associate(ctx, concept.UUID, prototypeUUID, model.RelInstanceOf, 1, 1, prov); err != nil {
		return nil, fmt.Errorf("linking concept to prototype: %w", err)
	}
	return concept, nil
}

// Associate creates a directed weighted edge. Associations are immutable;
// a superseding relationship is a new edge, not an update.
func (e *Engine) Associate(ctx context.Context, from, to, relationType string, weight, confidence float64, prov model.Provenance) (*model.Association, error) {
	a := model.NewAssociation(from, to, relationType)
	a.Weight = weight
	a.Confidence = confidence
	if err := a.Validate(); err != nil {
		return nil, validationf("association", "%v", err)
	}
	if err := e.store.UpsertAssociation(ctx, a, prov); err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Engine) associate(ctx context.Context, from, to, relationType string, weight, confidence float64, prov model.Provenance) error {
	_, err := e.Associate(ctx, from, to, relationType, weight, confidence, prov)
	return err
}

// GetEntity returns the entity or nil when absent.
func (e *Engine) GetEntity(ctx context.Context, uuid string) (*model.Entity, error) {
	return e.store.GetEntity(ctx, uuid)
}

// Deprecate marks an entity deprecated. Nothing is physically deleted.
func (e *Engine) Deprecate(ctx context.Context, uuid string, prov model.Provenance) error {
	ent, err := e.store.GetEntity(ctx, uuid)
	if err != nil {
		return err
	}
	if ent == nil {
		return validationf("uuid", "entity %s not found", uuid)
	}
	ent.Status = model.StatusDeprecated
	ent.UpdatedAt = prov.Timestamp
	return e.store.UpsertEntity(ctx, ent, prov)
}

// NewVersion links old to new with a next_version edge.
func (e *Engine) NewVersion(ctx context.Context, oldUUID, newUUID string, prov model.Provenance) error {
	return e.associate(ctx, oldUUID, newUUID, model.RelNextVersion, 1, 1, prov)
}

// Versions walks the next_version chain forward from uuid, including uuid
// itself. The walk is cycle-guarded: next_version is meant to be a DAG but
// insertion does not enforce it.
func (e *Engine) Versions(ctx context.Context, uuid string) ([]string, error) {
	var chain []string
	visited := map[string]bool{}
	current := uuid
	for current != "" && !visited[current] {
		visited[current] = true
		chain = append(chain, current)
		next, err := e.store.AssociationsFrom(ctx, current, model.RelNextVersion)
		if err != nil {
			return nil, err
		}
		current = ""
		if len(next) > 0 {
			current = next[0].To
		}
	}
	return chain, nil
}

func validTruth(truth float64) bool {
	return !math.IsNaN(truth) && !math.IsInf(truth, 0) && truth >= 0 && truth <= 1
}
