package engine

import (
	"context"
	"sort"

	"mnemograph/internal/model"
)

// CreateAssertion appends a truth-scored claim about an entity's property.
// Truth must be a finite number in [0,1]; subject, predicate and object must
// all be present. Assertions are never mutated or deleted: correction is a
// new assertion competing under the same (subject, predicate).
func (e *Engine) CreateAssertion(ctx context.Context, subject, predicate string, object model.Value, truth float64, source string, prov model.Provenance) (*model.Assertion, error) {
	if subject == "" {
		return nil, validationf("subject", "must not be empty")
	}
	if predicate == "" {
		return nil, validationf("predicate", "must not be empty")
	}
	if err := object.Validate(); err != nil {
		return nil, validationf("object", "%v", err)
	}
	if !validTruth(truth) {
		return nil, validationf("truth", "%v is not a finite number in [0,1]", truth)
	}

	a := model.NewAssertion(subject, predicate, object, truth, source)
	if err := e.store.AppendAssertion(ctx, a, prov); err != nil {
		return nil, err
	}
	return a, nil
}

// Snapshot resolves all competing assertions about an entity into one value
// per predicate: highest truth wins, and on an exact tie the most recently
// created assertion wins. Deterministic and reproducible by construction;
// there is no tunable policy state.
func (e *Engine) Snapshot(ctx context.Context, entityUUID string) (map[string]model.Value, error) {
	assertions, err := e.store.AssertionsFor(ctx, entityUUID)
	if err != nil {
		return nil, err
	}

	winners := map[string]*model.Assertion{}
	for _, a := range assertions {
		current, ok := winners[a.Predicate]
		if !ok || beats(a, current) {
			winners[a.Predicate] = a
		}
	}

	snapshot := make(map[string]model.Value, len(winners))
	for predicate, a := range winners {
		snapshot[predicate] = a.Object
	}
	return snapshot, nil
}

// Evidence returns every assertion behind a snapshot, ordered by the same
// comparator the resolver uses (truth descending, then recency descending),
// so the winner is always first. An empty predicate returns evidence across
// all predicates.
func (e *Engine) Evidence(ctx context.Context, entityUUID, predicate string) ([]*model.Assertion, error) {
	assertions, err := e.store.AssertionsFor(ctx, entityUUID)
	if err != nil {
		return nil, err
	}

	var matching []*model.Assertion
	for _, a := range assertions {
		if predicate == "" || a.Predicate == predicate {
			matching = append(matching, a)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return beats(matching[i], matching[j])
	})
	return matching, nil
}

// beats reports whether a wins over b under the resolution rule.
func beats(a, b *model.Assertion) bool {
	if a.Truth != b.Truth {
		return a.Truth > b.Truth
	}
	return a.CreatedAt.After(b.CreatedAt)
}
