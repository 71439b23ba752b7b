package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the three record families that share the entity table.
type Kind string

const (
	KindEntity    Kind = "entity"
	KindAssertion Kind = "assertion"
	KindFact      Kind = "fact"
)

// Status models soft lifecycle: records are never physically deleted.
type Status string

const (
	StatusActive     Status = "active"
	StatusProposed   Status = "proposed"
	StatusDeprecated Status = "deprecated"
)

// Well-known property keys.
const (
	PropLabel   = "label"
	PropSummary = "summary"
)

// Marker properties that classify an entity's role in the graph.
const (
	MarkPrototype = "isPrototype"
	MarkConcept   = "isConcept"
	MarkProperty  = "isProperty"
	MarkValue     = "isValue"
	MarkTag       = "isTag"
	MarkDocument  = "isDocument"
)

// Entity is the universal graph node.
// Labels[0] mirrors Properties["label"]; use SetLabel to keep them in sync.
type Entity struct {
	UUID       string           `json:"uuid"`
	Kind       Kind             `json:"kind"`
	Labels     []string         `json:"labels"`
	Properties map[string]Value `json:"properties,omitempty"`
	Embedding  []float32        `json:"embedding,omitempty"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewEntity creates an active plain entity with the given primary label.
func NewEntity(label string) *Entity {
	now := time.Now().UTC()
	e := &Entity{
		UUID:       uuid.New().String(),
		Kind:       KindEntity,
		Properties: map[string]Value{},
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.SetLabel(label)
	return e
}

// Label returns the primary label, or "" if none is set.
func (e *Entity) Label() string {
	if len(e.Labels) == 0 {
		return ""
	}
	return e.Labels[0]
}

// SetLabel sets the primary label and mirrors it into Properties["label"].
func (e *Entity) SetLabel(label string) {
	if len(e.Labels) == 0 {
		e.Labels = []string{label}
	} else {
		e.Labels[0] = label
	}
	if e.Properties == nil {
		e.Properties = map[string]Value{}
	}
	e.Properties[PropLabel] = String(label)
}

// AddAlias appends a secondary label.
func (e *Entity) AddAlias(alias string) {
	for _, l := range e.Labels {
		if l == alias {
			return
		}
	}
	e.Labels = append(e.Labels, alias)
}

// Summary returns the summary property text, or "".
func (e *Entity) Summary() string {
	if v, ok := e.Properties[PropSummary]; ok && v.Type == TypeString {
		return v.Str
	}
	return ""
}

// Marked reports whether a boolean marker property is set to true.
func (e *Entity) Marked(marker string) bool {
	v, ok := e.Properties[marker]
	return ok && v.Type == TypeBool && v.Bool
}

// Mark sets a boolean marker property.
func (e *Entity) Mark(marker string) {
	if e.Properties == nil {
		e.Properties = map[string]Value{}
	}
	e.Properties[marker] = Bool(true)
}
