package engine

import (
	"context"
	"sort"

	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

// StaleEmbedding flags an entity whose stored embedding no longer reflects
// its association structure. Aggregated embeddings are recomputed only on
// explicit RefreshEmbedding calls, so drift accumulates silently; this
// report tells callers what to refresh.
type StaleEmbedding struct {
	UUID        string `json:"uuid"`
	Label       string `json:"label"`
	Reason      string `json:"reason"` // "missing" or "structure-changed"
	EdgeCount   int    `json:"edge_count"`
	DriftMillis int64  `json:"drift_millis,omitempty"`
}

// StalenessReport is the result of an embedding staleness sweep.
type StalenessReport struct {
	Stale      []StaleEmbedding `json:"stale"`
	Checked    int              `json:"checked"`
	StaleCount int              `json:"stale_count"`
}

// EmbeddingStaleness sweeps every plain entity and reports those whose
// embedding is missing despite tag-bearing structure, or older than the
// newest association touching them. Pull-based like everything else: a full
// enumeration at call time, no incremental bookkeeping.
func (e *Engine) EmbeddingStaleness(ctx context.Context) (*StalenessReport, error) {
	entities, err := e.store.Entities(ctx, store.EntityFilter{Kind: model.KindEntity})
	if err != nil {
		return nil, err
	}
	edges, err := e.store.Associations(ctx)
	if err != nil {
		return nil, err
	}

	// Edge index per endpoint
	touching := make(map[string][]*model.Association)
	for _, a := range edges {
		touching[a.From] = append(touching[a.From], a)
		if a.To != a.From {
			touching[a.To] = append(touching[a.To], a)
		}
	}

	report := &StalenessReport{Checked: len(entities)}
	for _, ent := range entities {
		own := touching[ent.UUID]
		if len(own) == 0 {
			continue
		}

		newest := own[0].CreatedAt
		tagged := false
		for _, a := range own {
			if a.CreatedAt.After(newest) {
				newest = a.CreatedAt
			}
			if a.RelationType == model.RelHasTag || a.RelationType == model.RelHasDocument {
				tagged = true
			}
		}

		switch {
		case len(ent.Embedding) == 0 && tagged:
			report.Stale = append(report.Stale, StaleEmbedding{
				UUID:      ent.UUID,
				Label:     ent.Label(),
				Reason:    "missing",
				EdgeCount: len(own),
			})
		case len(ent.Embedding) > 0 && newest.After(ent.UpdatedAt):
			report.Stale = append(report.Stale, StaleEmbedding{
				UUID:        ent.UUID,
				Label:       ent.Label(),
				Reason:      "structure-changed",
				EdgeCount:   len(own),
				DriftMillis: newest.Sub(ent.UpdatedAt).Milliseconds(),
			})
		}
	}

	sort.Slice(report.Stale, func(i, j int) bool {
		return report.Stale[i].DriftMillis > report.Stale[j].DriftMillis
	})
	report.StaleCount = len(report.Stale)
	return report, nil
}
