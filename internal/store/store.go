// Package store provides the uniform storage contract the engine is built on,
// with in-memory, SQLite and Neo4j implementations.
package store

import (
	"context"

	"mnemograph/internal/model"
)

// EntityFilter restricts enumeration. Zero-value fields match everything.
type EntityFilter struct {
	Kind   model.Kind
	Marker string // marker property that must be true, e.g. model.MarkPrototype
	Status model.Status
}

// Store is the uniform storage interface. Reads return (nil, nil) when the
// uuid is absent; absence is an expected outcome, not an error. Writes take
// provenance metadata. Associations and assertions are append-only at the
// engine level; the store does not enforce that.
type Store interface {
	UpsertEntity(ctx context.Context, e *model.Entity, prov model.Provenance) error
	GetEntity(ctx context.Context, uuid string) (*model.Entity, error)
	Entities(ctx context.Context, f EntityFilter) ([]*model.Entity, error)

	UpsertAssociation(ctx context.Context, a *model.Association, prov model.Provenance) error
	GetAssociation(ctx context.Context, uuid string) (*model.Association, error)
	// Associations enumerates every stored edge in creation order.
	Associations(ctx context.Context) ([]*model.Association, error)
	// AssociationsFrom returns outgoing edges of one relation type, ordered by
	// creation time then uuid. Schema resolution depends on this order being
	// deterministic.
	AssociationsFrom(ctx context.Context, entityUUID, relationType string) ([]*model.Association, error)
	// AssociationsFor returns every edge touching the entity in either
	// direction, in the same deterministic order.
	AssociationsFor(ctx context.Context, entityUUID string) ([]*model.Association, error)

	AppendAssertion(ctx context.Context, a *model.Assertion, prov model.Provenance) error
	AssertionsFor(ctx context.Context, subjectUUID string) ([]*model.Assertion, error)

	// UpsertFact deduplicates on Fact.Key: a second write with the same key
	// replaces the record.
	UpsertFact(ctx context.Context, f *model.Fact, prov model.Provenance) error
	Facts(ctx context.Context) ([]*model.Fact, error)

	Close() error
}
