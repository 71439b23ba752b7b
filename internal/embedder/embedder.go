// Package embedder defines the text-embedding collaborator the engine is
// injected with, plus two implementations: a deterministic offline hash
// embedder and an OpenAI-backed one.
package embedder

import "context"

// Func maps text to a fixed-length vector. Implementations are assumed
// deterministic enough for caching but are not required to be pure.
type Func func(ctx context.Context, text string) ([]float32, error)
