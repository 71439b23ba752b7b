package engine

import (
	"context"
	"testing"
	"time"

	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

func TestEmbeddingStaleness_MissingEmbedding(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	target := seedEntity(t, st, "untagged note", nil)
	tag := seedTag(t, st, "topic", []float32{1, 0})
	if _, err := eng.Associate(ctx, target.UUID, tag.UUID, model.RelHasTag, 1, 1, prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := eng.EmbeddingStaleness(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, s := range report.Stale {
		if s.UUID == target.UUID {
			found = true
			if s.Reason != "missing" {
				t.Errorf("expected reason 'missing', got %q", s.Reason)
			}
			if s.EdgeCount != 1 {
				t.Errorf("expected 1 edge, got %d", s.EdgeCount)
			}
		}
	}
	if !found {
		t.Error("expected the tag-bearing entity without an embedding to be flagged")
	}
}

func TestEmbeddingStaleness_StructureChanged(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	target := model.NewEntity("drifted note")
	target.Embedding = []float32{1, 0}
	target.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	if err := st.UpsertEntity(ctx, target, prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tag := seedTag(t, st, "new topic", []float32{0, 1})
	// This edge postdates the stored embedding.
	if _, err := eng.Associate(ctx, target.UUID, tag.UUID, model.RelHasTag, 1, 1, prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := eng.EmbeddingStaleness(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, s := range report.Stale {
		if s.UUID == target.UUID {
			found = true
			if s.Reason != "structure-changed" {
				t.Errorf("expected reason 'structure-changed', got %q", s.Reason)
			}
			if s.DriftMillis <= 0 {
				t.Errorf("expected positive drift, got %d", s.DriftMillis)
			}
		}
	}
	if !found {
		t.Error("expected the entity with a newer edge to be flagged")
	}
}

func TestEmbeddingStaleness_FreshAndIsolatedSkipped(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	// Isolated: no edges at all.
	seedEntity(t, st, "isolated", nil)

	// Fresh: embedding updated after its only edge was created.
	fresh := seedEntity(t, st, "fresh", nil)
	tag := seedTag(t, st, "topic", []float32{1, 0})
	if _, err := eng.Associate(ctx, fresh.UUID, tag.UUID, model.RelHasTag, 1, 1, prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.RefreshEmbedding(ctx, fresh.UUID, model.Prov("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := eng.EmbeddingStaleness(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range report.Stale {
		if s.Label == "isolated" || s.Label == "fresh" {
			t.Errorf("entity %q should not be flagged", s.Label)
		}
	}
	if report.Checked < 2 {
		t.Errorf("expected at least 2 entities checked, got %d", report.Checked)
	}
}
