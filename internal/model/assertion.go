package model

import (
	"time"

	"github.com/google/uuid"
)

// AssertionStatus is fixed at accepted in the minimal model. The field exists
// so a richer lifecycle (pending/disputed/retracted/merged) can be added
// without a storage change.
type AssertionStatus string

const AssertionAccepted AssertionStatus = "accepted"

// Assertion is an immutable, timestamped, truth-scored claim about an
// entity's property. Multiple assertions may share (subject, predicate);
// they compete and are resolved at read time. Correction is done by
// appending a new assertion, never by mutating an existing one.
type Assertion struct {
	UUID      string          `json:"uuid"`
	Subject   string          `json:"subject"`
	Predicate string          `json:"predicate"`
	Object    Value           `json:"object"`
	Truth     float64         `json:"truth"`
	Source    string          `json:"source"`
	Status    AssertionStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAssertion builds an accepted assertion stamped now.
func NewAssertion(subject, predicate string, object Value, truth float64, source string) *Assertion {
	return &Assertion{
		UUID:      uuid.New().String(),
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Truth:     truth,
		Source:    source,
		Status:    AssertionAccepted,
		CreatedAt: time.Now().UTC(),
	}
}

// FactStatus is the verification state of a stored fact.
type FactStatus string

const (
	FactVerified   FactStatus = "verified"
	FactRefuted    FactStatus = "refuted"
	FactUnverified FactStatus = "unverified"
)

// Fact is a verification-oriented projection of an assertion: a normalized
// (subject, predicate, object) triple with an embedding of its
// natural-language rendering and a back-reference to the originating
// assertion.
type Fact struct {
	UUID          string     `json:"uuid"`
	Key           string     `json:"key"` // dedup key over the normalized triple
	Subject       string     `json:"subject"`
	Predicate     string     `json:"predicate"`
	Object        string     `json:"object"`
	Status        FactStatus `json:"status"`
	Confidence    float64    `json:"confidence"`
	Embedding     []float32  `json:"embedding,omitempty"`
	AssertionUUID string     `json:"assertion_uuid"`
	Source        string     `json:"source"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Sentence renders the triple as natural-language text for embedding.
func (f *Fact) Sentence() string {
	return f.Subject + " " + f.Predicate + " " + f.Object
}
