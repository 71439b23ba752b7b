package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mnemograph/internal/model"
)

// ContradictionChecker decides whether a claim contradicts a matched fact.
// It returns the contradicting fact to cite. Pluggable so the default
// textual heuristic can be swapped for something stronger without touching
// the resolver core.
type ContradictionChecker interface {
	Check(claim string, matched *model.Fact, siblings []*model.Fact) (*model.Fact, bool)
}

// TextualContradiction is the default checker. The claim text is matched
// against the subject and predicate of the best-matching fact; if the claim
// asserts an object a verified fact with the same subject and predicate
// disagrees with, that verified fact is cited as contradicting. Two shapes
// are caught: the matched fact is verified and the claim names some other
// stored object, or the matched fact carries the claim's object but a
// verified sibling names a different one.
//
// Best-effort only: plain substring containment, no parsing, not guaranteed
// sound in either direction.
type TextualContradiction struct{}

func (TextualContradiction) Check(claim string, matched *model.Fact, siblings []*model.Fact) (*model.Fact, bool) {
	text := strings.ToLower(claim)
	if !strings.Contains(text, matched.Subject) || !strings.Contains(text, matched.Predicate) {
		return nil, false
	}

	claimAgrees := strings.Contains(text, matched.Object)

	if matched.Status == model.FactVerified && !claimAgrees {
		// Does the claim assert some other object we know about?
		for _, sibling := range siblings {
			if sibling.Key == matched.Key ||
				sibling.Subject != matched.Subject || sibling.Predicate != matched.Predicate {
				continue
			}
			if strings.Contains(text, sibling.Object) {
				return matched, true
			}
		}
		return nil, false
	}

	if matched.Status != model.FactVerified && claimAgrees {
		// A verified sibling with a different object contradicts the claim.
		for _, sibling := range siblings {
			if sibling.Key == matched.Key ||
				sibling.Subject != matched.Subject || sibling.Predicate != matched.Predicate {
				continue
			}
			if sibling.Status == model.FactVerified && sibling.Object != matched.Object {
				return sibling, true
			}
		}
	}
	return nil, false
}

// Verification is the result of checking a claim against stored facts.
type Verification struct {
	Status         model.FactStatus `json:"status"`
	Confidence     float64          `json:"confidence"`
	Similarity     float32          `json:"similarity"`
	Fact           *model.Fact      `json:"fact,omitempty"`            // best match
	ContradictedBy *model.Fact      `json:"contradicted_by,omitempty"` // set when the heuristic fires
}

// StoreFact normalizes a triple, persists an assertion for audit, and
// upserts a fact record carrying an embedding of the triple rendered as
// natural-language text. A repeated triple (same normalized key) replaces
// the previous record.
func (e *Engine) StoreFact(ctx context.Context, subject, predicate, object string, status model.FactStatus, confidence float64, source string, prov model.Provenance) (*model.Fact, error) {
	subject = normalizeTerm(subject)
	predicate = normalizeTerm(predicate)
	object = normalizeTerm(object)
	if subject == "" || predicate == "" || object == "" {
		return nil, validationf("triple", "subject, predicate and object must all be present")
	}
	switch status {
	case model.FactVerified, model.FactRefuted, model.FactUnverified:
	default:
		return nil, validationf("status", "unknown fact status %q", status)
	}
	if !validTruth(confidence) {
		return nil, validationf("confidence", "%v is not a finite number in [0,1]", confidence)
	}

	assertion, err := e.CreateAssertion(ctx, subject, predicate, model.String(object), confidence, source, prov)
	if err != nil {
		return nil, err
	}

	fact := &model.Fact{
		UUID:          uuid.New().String(),
		Key:           tripleKey(subject, predicate, object),
		Subject:       subject,
		Predicate:     predicate,
		Object:        object,
		Status:        status,
		Confidence:    confidence,
		AssertionUUID: assertion.UUID,
		Source:        source,
		CreatedAt:     time.Now().UTC(),
	}

	if e.embed != nil {
		vec, err := e.embed(ctx, fact.Sentence())
		if err != nil {
			return nil, err
		}
		fact.Embedding = vec
	}

	if err := e.store.UpsertFact(ctx, fact, prov); err != nil {
		return nil, err
	}
	return fact, nil
}

// Verify embeds the claim and checks it against the stored fact with the
// highest cosine similarity. Below the threshold the claim is unverified.
// Otherwise the matched fact's status carries over: verified with combined
// confidence (similarity times fact confidence), or refuted. The textual
// contradiction heuristic can additionally flag a claim that asserts a
// different object than a verified fact.
func (e *Engine) Verify(ctx context.Context, claim string, threshold float64) (*Verification, error) {
	unverified := &Verification{Status: model.FactUnverified}
	if e.embed == nil {
		return unverified, nil
	}

	claimVec, err := e.embed(ctx, claim)
	if err != nil {
		return nil, err
	}
	if len(claimVec) == 0 {
		return unverified, nil
	}

	facts, err := e.store.Facts(ctx)
	if err != nil {
		return nil, err
	}

	var best *model.Fact
	var bestSim float32
	for _, f := range facts {
		if len(f.Embedding) == 0 {
			continue
		}
		sim := Cosine(claimVec, f.Embedding)
		if best == nil || sim > bestSim {
			best = f
			bestSim = sim
		}
	}
	if best == nil {
		return unverified, nil
	}

	if contradicting, ok := e.contradiction.Check(claim, best, facts); ok {
		e.log.Debug("claim contradicted",
			zap.String("claim", claim), zap.String("fact", contradicting.Key))
		return &Verification{
			Status:         model.FactRefuted,
			Similarity:     bestSim,
			Fact:           best,
			ContradictedBy: contradicting,
		}, nil
	}

	if float64(bestSim) < threshold {
		unverified.Similarity = bestSim
		return unverified, nil
	}

	switch best.Status {
	case model.FactVerified:
		return &Verification{
			Status:     model.FactVerified,
			Confidence: float64(bestSim) * best.Confidence,
			Similarity: bestSim,
			Fact:       best,
		}, nil
	case model.FactRefuted:
		return &Verification{
			Status:     model.FactRefuted,
			Similarity: bestSim,
			Fact:       best,
		}, nil
	default:
		unverified.Similarity = bestSim
		unverified.Fact = best
		return unverified, nil
	}
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tripleKey is the deterministic dedup key over a normalized triple.
func tripleKey(subject, predicate, object string) string {
	sum := sha256.Sum256([]byte(subject + "|" + predicate + "|" + object))
	return hex.EncodeToString(sum[:])
}
