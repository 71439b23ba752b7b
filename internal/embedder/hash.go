package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Hash returns a deterministic bag-of-words embedder using the hashing trick:
// each token is hashed into one of dim buckets and the resulting count vector
// is L2-normalized. No network, no model; texts sharing tokens get high
// cosine similarity. Suitable for tests and offline use, not for real
// semantic retrieval.
func Hash(dim int) Func {
	return func(ctx context.Context, text string) ([]float32, error) {
		tokens := tokenize(text)
		if len(tokens) == 0 {
			return nil, nil
		}
		vec := make([]float32, dim)
		for _, tok := range tokens {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[int(h.Sum32())%dim]++
		}
		var norm float64
		for _, f := range vec {
			norm += float64(f) * float64(f)
		}
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
		return vec, nil
	}
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 0 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
