package engine

import (
	"context"

	"go.uber.org/zap"

	"mnemograph/internal/model"
)

// ComputeEmbedding aggregates an entity's semantic vector: the per-dimension
// mean of the embeddings of every tag entity one association hop away in
// either direction, plus tags one further hop through any linked document.
// With no tagged neighbors it falls back to embedding the entity's own label
// and summary text. Returns nil (not an error) when there is nothing to
// embed.
//
// Recomputation is not automatic. Callers must invoke RefreshEmbedding after
// changing an entity's tags or associations; the engine does not watch for
// structural mutations.
func (e *Engine) ComputeEmbedding(ctx context.Context, uuid string) ([]float32, error) {
	target, err := e.store.GetEntity(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}

	neighborIDs, err := e.neighborhood(ctx, uuid)
	if err != nil {
		return nil, err
	}

	var vectors [][]float32
	for _, id := range neighborIDs {
		neighbor, err := e.store.GetEntity(ctx, id)
		if err != nil {
			return nil, err
		}
		if neighbor == nil || !neighbor.Marked(model.MarkTag) || len(neighbor.Embedding) == 0 {
			continue
		}
		vectors = append(vectors, neighbor.Embedding)
	}

	if len(vectors) == 0 {
		vectors, err = e.textVectors(ctx, target)
		if err != nil {
			return nil, err
		}
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return meanVectors(vectors, e.log), nil
}

// RefreshEmbedding recomputes and persists the entity's embedding. It is
// idempotent; call it after structural changes instead of relying on stale
// stored vectors.
func (e *Engine) RefreshEmbedding(ctx context.Context, uuid string, prov model.Provenance) ([]float32, error) {
	vec, err := e.ComputeEmbedding(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, nil // nothing to embed; skip the update
	}
	ent, err := e.store.GetEntity(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, nil
	}
	ent.Embedding = vec
	ent.UpdatedAt = prov.Timestamp
	if err := e.store.UpsertEntity(ctx, ent, prov); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedText runs the injected embedder on arbitrary text. Returns nil when
// no embedder is configured or the text is empty.
func (e *Engine) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.embed == nil || text == "" {
		return nil, nil
	}
	return e.embed(ctx, text)
}

// neighborhood returns ids one hop away in either direction, plus one
// further hop through has_tag edges of linked documents. Order follows edge
// order; duplicates are removed.
func (e *Engine) neighborhood(ctx context.Context, uuid string) ([]string, error) {
	edges, err := e.store.AssociationsFor(ctx, uuid)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := map[string]bool{uuid: true}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, edge := range edges {
		other := edge.To
		if other == uuid {
			other = edge.From
		}
		add(other)

		if edge.RelationType == model.RelHasDocument && edge.From == uuid {
			tagEdges, err := e.store.AssociationsFrom(ctx, edge.To, model.RelHasTag)
			if err != nil {
				return nil, err
			}
			for _, te := range tagEdges {
				add(te.To)
			}
		}
	}
	return ids, nil
}

// textVectors embeds the entity's label and summary, each contributing one
// vector to the mean.
func (e *Engine) textVectors(ctx context.Context, ent *model.Entity) ([][]float32, error) {
	if e.embed == nil {
		return nil, nil
	}
	var vectors [][]float32
	for _, text := range []string{ent.Label(), ent.Summary()} {
		if text == "" {
			continue
		}
		vec, err := e.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(vec) > 0 {
			vectors = append(vectors, vec)
		}
	}
	return vectors, nil
}

// meanVectors averages per dimension. The first vector fixes the dimension;
// mismatched vectors are skipped rather than erroring.
func meanVectors(vectors [][]float32, log *zap.Logger) []float32 {
	dim := len(vectors[0])
	sum := make([]float64, dim)
	n := 0
	for _, vec := range vectors {
		if len(vec) != dim {
			log.Debug("skipping mismatched embedding dimension",
				zap.Int("want", dim), zap.Int("got", len(vec)))
			continue
		}
		for i, f := range vec {
			sum[i] += float64(f)
		}
		n++
	}
	mean := make([]float32, dim)
	for i := range sum {
		mean[i] = float32(sum[i] / float64(n))
	}
	return mean
}
