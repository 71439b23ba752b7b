package store

import (
	"context"
	"sort"
	"sync"

	"mnemograph/internal/model"
)

// Memory is a mutex-guarded in-memory Store. It is the reference backend for
// tests and for callers that do not need durability.
type Memory struct {
	mu         sync.RWMutex
	entities   map[string]*model.Entity
	assocs     map[string]*model.Association
	assocOrder []string // insertion order, for deterministic traversal
	assertions []*model.Assertion
	facts      map[string]*model.Fact // by dedup key
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entities: map[string]*model.Entity{},
		assocs:   map[string]*model.Association{},
		facts:    map[string]*model.Fact{},
	}
}

func (m *Memory) UpsertEntity(ctx context.Context, e *model.Entity, prov model.Provenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[e.UUID] = cloneEntity(e)
	return nil
}

func (m *Memory) GetEntity(ctx context.Context, uuid string) (*model.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[uuid]
	if !ok {
		return nil, nil
	}
	return cloneEntity(e), nil
}

func (m *Memory) Entities(ctx context.Context, f EntityFilter) ([]*model.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.Entity
	for _, e := range m.entities {
		if matchEntity(e, f) {
			result = append(result, cloneEntity(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].UUID < result[j].UUID
	})
	return result, nil
}

func (m *Memory) UpsertAssociation(ctx context.Context, a *model.Association, prov model.Provenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.assocs[a.UUID]; !exists {
		m.assocOrder = append(m.assocOrder, a.UUID)
	}
	cp := *a
	m.assocs[a.UUID] = &cp
	return nil
}

func (m *Memory) GetAssociation(ctx context.Context, uuid string) (*model.Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assocs[uuid]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) Associations(ctx context.Context) ([]*model.Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*model.Association, 0, len(m.assocOrder))
	for _, id := range m.assocOrder {
		cp := *m.assocs[id]
		result = append(result, &cp)
	}
	sortAssociations(result)
	return result, nil
}

func (m *Memory) AssociationsFrom(ctx context.Context, entityUUID, relationType string) ([]*model.Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.Association
	for _, id := range m.assocOrder {
		a := m.assocs[id]
		if a.From == entityUUID && a.RelationType == relationType {
			cp := *a
			result = append(result, &cp)
		}
	}
	sortAssociations(result)
	return result, nil
}

func (m *Memory) AssociationsFor(ctx context.Context, entityUUID string) ([]*model.Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.Association
	for _, id := range m.assocOrder {
		a := m.assocs[id]
		if a.From == entityUUID || a.To == entityUUID {
			cp := *a
			result = append(result, &cp)
		}
	}
	sortAssociations(result)
	return result, nil
}

func (m *Memory) AppendAssertion(ctx context.Context, a *model.Assertion, prov model.Provenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assertions = append(m.assertions, &cp)
	return nil
}

func (m *Memory) AssertionsFor(ctx context.Context, subjectUUID string) ([]*model.Assertion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.Assertion
	for _, a := range m.assertions {
		if a.Subject == subjectUUID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *Memory) UpsertFact(ctx context.Context, f *model.Fact, prov model.Provenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts[f.Key] = cloneFact(f)
	return nil
}

func (m *Memory) Facts(ctx context.Context) ([]*model.Fact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*model.Fact, 0, len(m.facts))
	for _, f := range m.facts {
		result = append(result, cloneFact(f))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].UUID < result[j].UUID
	})
	return result, nil
}

func (m *Memory) Close() error { return nil }

func matchEntity(e *model.Entity, f EntityFilter) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Marker != "" && !e.Marked(f.Marker) {
		return false
	}
	return true
}

func sortAssociations(assocs []*model.Association) {
	sort.SliceStable(assocs, func(i, j int) bool {
		if !assocs[i].CreatedAt.Equal(assocs[j].CreatedAt) {
			return assocs[i].CreatedAt.Before(assocs[j].CreatedAt)
		}
		return assocs[i].UUID < assocs[j].UUID
	})
}

func cloneEntity(e *model.Entity) *model.Entity {
	cp := *e
	cp.Labels = append([]string(nil), e.Labels...)
	cp.Embedding = append([]float32(nil), e.Embedding...)
	if e.Properties != nil {
		cp.Properties = make(map[string]model.Value, len(e.Properties))
		for k, v := range e.Properties {
			cp.Properties[k] = v
		}
	}
	return &cp
}

func cloneFact(f *model.Fact) *model.Fact {
	cp := *f
	cp.Embedding = append([]float32(nil), f.Embedding...)
	return &cp
}
