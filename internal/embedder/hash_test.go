package embedder

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHash_Deterministic(t *testing.T) {
	embed := Hash(64)
	ctx := context.Background()

	a, err := embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dim %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestHash_Normalized(t *testing.T) {
	embed := Hash(64)
	vec, err := embed(context.Background(), "some text to embed here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var norm float64
	for _, f := range vec {
		norm += float64(f) * float64(f)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 0.0001 {
		t.Errorf("expected unit norm, got %f", math.Sqrt(norm))
	}
}

func TestHash_EmptyText(t *testing.T) {
	embed := Hash(64)
	vec, err := embed(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec != nil {
		t.Errorf("expected nil for blank text, got %v", vec)
	}
}

func TestHash_SharedTokensScoreHigher(t *testing.T) {
	embed := Hash(256)
	ctx := context.Background()

	base, _ := embed(ctx, "alexander bell invented the telephone")
	near, _ := embed(ctx, "alexander bell invented the radio")
	far, _ := embed(ctx, "zebras graze on open grassland")

	if cosine(base, near) <= cosine(base, far) {
		t.Errorf("expected overlapping texts to score higher: near=%f far=%f",
			cosine(base, near), cosine(base, far))
	}
}

func TestHash_CaseAndPunctuationInsensitive(t *testing.T) {
	embed := Hash(64)
	ctx := context.Background()

	a, _ := embed(ctx, "Hello, World!")
	b, _ := embed(ctx, "hello world")
	if sim := cosine(a, b); math.Abs(sim-1.0) > 0.0001 {
		t.Errorf("expected identical token bags, got similarity %f", sim)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, World! 42nd time's the charm")
	want := []string{"hello", "world", "42nd", "time", "s", "the", "charm"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
