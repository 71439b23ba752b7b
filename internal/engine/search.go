package engine

import (
	"context"
	"math"
	"sort"
	"strings"

	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

// LabelMatchScore is the sentinel score reported for label-substring matches
// when no query vector is supplied. It has no geometric meaning; -1 sorts
// after any real cosine result.
const LabelMatchScore float32 = -1

// SearchQuery restricts and ranks candidates. With a Vector, candidates are
// ranked by cosine similarity; without one, Text falls back to substring
// matching on labels with LabelMatchScore.
type SearchQuery struct {
	Vector        []float32
	Text          string
	TopK          int
	Kind          model.Kind
	PrototypeUUID string   // restrict to instances of this prototype
	Threshold     *float64 // trims results below this score after ranking; nil means no cutoff
}

// SearchResult pairs an entity with its similarity score.
type SearchResult struct {
	Entity *model.Entity `json:"entity"`
	Score  float32       `json:"score"`
}

// Cosine computes cosine similarity between two vectors.
// Returns 0.0 for zero-norm vectors or mismatched lengths, never NaN.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	na := float32(math.Sqrt(float64(normA)))
	nb := float32(math.Sqrt(float64(normB)))

	if na == 0 || nb == 0 {
		return 0.0
	}

	return dot / (na * nb)
}

// Search ranks entities against the query. Structural filters (kind,
// prototype membership) restrict candidates first; ranking is by similarity
// descending with ties left in source iteration order. The threshold is
// applied after TopK so the cap always reflects the best available
// candidates before the tail is trimmed.
func (e *Engine) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	candidates, err := e.store.Entities(ctx, store.EntityFilter{Kind: q.Kind})
	if err != nil {
		return nil, err
	}

	if q.PrototypeUUID != "" {
		candidates, err = e.filterByPrototype(ctx, candidates, q.PrototypeUUID)
		if err != nil {
			return nil, err
		}
	}

	if len(q.Vector) == 0 {
		return e.labelFallback(candidates, q), nil
	}

	var results []SearchResult
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		results = append(results, SearchResult{Entity: c, Score: Cosine(q.Vector, c.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if q.TopK > 0 && len(results) > q.TopK {
		results = results[:q.TopK]
	}

	// Threshold trims the tail after ranking, not before. A zero cutoff is a
	// real cutoff: it removes negative-similarity results.
	if q.Threshold != nil {
		trimmed := results[:0]
		for _, r := range results {
			if float64(r.Score) >= *q.Threshold {
				trimmed = append(trimmed, r)
			}
		}
		results = trimmed
	}
	return results, nil
}

// labelFallback is the degenerate case without a query vector: substring
// matching over all labels (aliases included). The threshold does not apply;
// sentinel scores are not geometry.
func (e *Engine) labelFallback(candidates []*model.Entity, q SearchQuery) []SearchResult {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return nil
	}
	var results []SearchResult
	for _, c := range candidates {
		for _, label := range c.Labels {
			if strings.Contains(strings.ToLower(label), needle) {
				results = append(results, SearchResult{Entity: c, Score: LabelMatchScore})
				break
			}
		}
	}
	if q.TopK > 0 && len(results) > q.TopK {
		results = results[:q.TopK]
	}
	return results
}

func (e *Engine) filterByPrototype(ctx context.Context, candidates []*model.Entity, prototypeUUID string) ([]*model.Entity, error) {
	var filtered []*model.Entity
	for _, c := range candidates {
		edges, err := e.store.AssociationsFrom(ctx, c.UUID, model.RelInstanceOf)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if edge.To == prototypeUUID {
				filtered = append(filtered, c)
				break
			}
		}
	}
	return filtered, nil
}
