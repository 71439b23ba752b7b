package engine

import (
	"context"
	"errors"
	"testing"

	"mnemograph/internal/embedder"
	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

func newVerifyEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return New(st, embedder.Hash(64)), st
}

func TestStoreFact_NormalizesAndEmbeds(t *testing.T) {
	eng, st := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	fact, err := eng.StoreFact(ctx, "  Alexander Bell ", "Invented", "The Telephone", model.FactVerified, 0.95, "doc", prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fact.Subject != "alexander bell" || fact.Predicate != "invented" || fact.Object != "the telephone" {
		t.Errorf("triple not normalized: %q %q %q", fact.Subject, fact.Predicate, fact.Object)
	}
	if len(fact.Embedding) == 0 {
		t.Error("expected an embedding of the rendered triple")
	}
	if fact.Key == "" {
		t.Error("expected a dedup key")
	}

	// The audit assertion lands alongside the fact.
	assertions, err := st.AssertionsFor(ctx, "alexander bell")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assertions) != 1 {
		t.Fatalf("expected 1 audit assertion, got %d", len(assertions))
	}
	if fact.AssertionUUID != assertions[0].UUID {
		t.Error("fact should reference its audit assertion")
	}
}

func TestStoreFact_DeduplicatesOnTriple(t *testing.T) {
	eng, st := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	first, err := eng.StoreFact(ctx, "bell", "invented", "the telephone", model.FactUnverified, 0.5, "doc", prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.StoreFact(ctx, "Bell", "INVENTED", "The Telephone", model.FactVerified, 0.9, "doc", prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Key != second.Key {
		t.Error("case variants should normalize to the same key")
	}

	facts, err := st.Facts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 deduplicated fact, got %d", len(facts))
	}
	if facts[0].Status != model.FactVerified {
		t.Errorf("expected the later write to win, got status %q", facts[0].Status)
	}
}

func TestStoreFact_Validation(t *testing.T) {
	eng, _ := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	cases := []struct {
		name                       string
		subject, predicate, object string
		status                     model.FactStatus
		confidence                 float64
	}{
		{"empty subject", "", "invented", "x", model.FactVerified, 0.9},
		{"blank object", "bell", "invented", "   ", model.FactVerified, 0.9},
		{"unknown status", "bell", "invented", "x", "maybe", 0.9},
		{"confidence out of range", "bell", "invented", "x", model.FactVerified, 1.5},
	}
	for _, tc := range cases {
		_, err := eng.StoreFact(ctx, tc.subject, tc.predicate, tc.object, tc.status, tc.confidence, "doc", prov)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestVerify_MatchesVerifiedFact(t *testing.T) {
	eng, _ := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	if _, err := eng.StoreFact(ctx, "Alexander Bell", "invented", "the telephone", model.FactVerified, 0.95, "doc", prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := eng.Verify(ctx, "alexander bell invented the telephone", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.FactVerified {
		t.Fatalf("expected verified, got %q", result.Status)
	}
	if result.Similarity < 0.99 {
		t.Errorf("expected near-identical similarity, got %f", result.Similarity)
	}
	want := float64(result.Similarity) * 0.95
	if result.Confidence < want-0.001 || result.Confidence > want+0.001 {
		t.Errorf("expected combined confidence ~%f, got %f", want, result.Confidence)
	}
	if result.Fact == nil || result.Fact.Object != "the telephone" {
		t.Error("expected the matched fact to be returned")
	}
}

func TestVerify_ContradictionRefutes(t *testing.T) {
	eng, _ := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	if _, err := eng.StoreFact(ctx, "Alexander Bell", "invented", "the telephone", model.FactVerified, 0.95, "doc", prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.StoreFact(ctx, "Alexander Bell", "invented", "the radio", model.FactUnverified, 0.3, "rumor", prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := eng.Verify(ctx, "alexander bell invented the radio", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.FactRefuted {
		t.Fatalf("expected refuted, got %q", result.Status)
	}
	if result.ContradictedBy == nil || result.ContradictedBy.Object != "the telephone" {
		t.Error("expected the verified telephone fact to be cited")
	}
}

func TestVerify_BelowThresholdUnverified(t *testing.T) {
	eng, _ := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	if _, err := eng.StoreFact(ctx, "Alexander Bell", "invented", "the telephone", model.FactVerified, 0.95, "doc", prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := eng.Verify(ctx, "grace hopper popularized compilers", 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.FactUnverified {
		t.Errorf("expected unverified, got %q", result.Status)
	}
}

func TestVerify_RefutedFactCarriesOver(t *testing.T) {
	eng, _ := newVerifyEngine(t)
	ctx := context.Background()
	prov := model.Prov("doc")

	if _, err := eng.StoreFact(ctx, "thomas edison", "invented", "the lightbulb alone", model.FactRefuted, 0.8, "doc", prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := eng.Verify(ctx, "thomas edison invented the lightbulb alone", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.FactRefuted {
		t.Errorf("expected refuted, got %q", result.Status)
	}
	if result.Fact == nil {
		t.Error("expected the matched fact to be returned")
	}
}

func TestVerify_NoFactsUnverified(t *testing.T) {
	eng, _ := newVerifyEngine(t)

	result, err := eng.Verify(context.Background(), "anything at all", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.FactUnverified {
		t.Errorf("expected unverified with empty fact store, got %q", result.Status)
	}
}

func TestVerify_NoEmbedderUnverified(t *testing.T) {
	eng := New(store.NewMemory(), nil)

	result, err := eng.Verify(context.Background(), "anything", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.FactUnverified {
		t.Errorf("expected unverified without an embedder, got %q", result.Status)
	}
}

func TestTextualContradiction_MatchedVerified(t *testing.T) {
	telephone := &model.Fact{
		Key: "k1", Subject: "alexander bell", Predicate: "invented",
		Object: "the telephone", Status: model.FactVerified,
	}
	radio := &model.Fact{
		Key: "k2", Subject: "alexander bell", Predicate: "invented",
		Object: "the radio", Status: model.FactUnverified,
	}

	var checker TextualContradiction
	cited, ok := checker.Check("Alexander Bell invented the radio", telephone, []*model.Fact{telephone, radio})
	if !ok {
		t.Fatal("expected contradiction")
	}
	if cited.Key != telephone.Key {
		t.Errorf("expected the verified fact cited, got %q", cited.Key)
	}
}

func TestTextualContradiction_AgreeingClaim(t *testing.T) {
	telephone := &model.Fact{
		Key: "k1", Subject: "alexander bell", Predicate: "invented",
		Object: "the telephone", Status: model.FactVerified,
	}

	var checker TextualContradiction
	if _, ok := checker.Check("Alexander Bell invented the telephone", telephone, []*model.Fact{telephone}); ok {
		t.Error("an agreeing claim must not be contradicted")
	}
}

func TestTextualContradiction_UnknownObjectNotContradicted(t *testing.T) {
	telephone := &model.Fact{
		Key: "k1", Subject: "alexander bell", Predicate: "invented",
		Object: "the telephone", Status: model.FactVerified,
	}

	var checker TextualContradiction
	// The claim names an object no stored fact knows about; the heuristic
	// cannot tell agreement from disagreement and stays silent.
	if _, ok := checker.Check("Alexander Bell invented the gramophone", telephone, []*model.Fact{telephone}); ok {
		t.Error("expected no contradiction for an unknown object")
	}
}

func TestTextualContradiction_DifferentSubjectIgnored(t *testing.T) {
	telephone := &model.Fact{
		Key: "k1", Subject: "alexander bell", Predicate: "invented",
		Object: "the telephone", Status: model.FactVerified,
	}

	var checker TextualContradiction
	if _, ok := checker.Check("Thomas Edison invented the telephone", telephone, []*model.Fact{telephone}); ok {
		t.Error("a claim about a different subject must not trigger")
	}
}
