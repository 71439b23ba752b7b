package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Built-in relation types. RelationType is free-form; these are the ones the
// engine assigns meaning to.
const (
	RelIsA         = "is_a"
	RelInstanceOf  = "instanceOf"
	RelHasProp     = "has_prop"
	RelHasValue    = "has_value"
	RelHasDocument = "has_document"
	RelHasTag      = "has_tag"
	RelNextVersion = "next_version"
)

// Association is a directed, typed, weighted edge between two entities.
// Associations are immutable once created; superseding relationships are
// added, never edited in place.
type Association struct {
	UUID         string    `json:"uuid"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	RelationType string    `json:"relation_type"`
	Weight       float64   `json:"weight"`
	Confidence   float64   `json:"confidence"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAssociation creates an active association with full weight and confidence.
func NewAssociation(from, to, relationType string) *Association {
	return &Association{
		UUID:         uuid.New().String(),
		From:         from,
		To:           to,
		RelationType: relationType,
		Weight:       1.0,
		Confidence:   1.0,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks structural requirements before a write.
func (a *Association) Validate() error {
	if a.From == "" || a.To == "" {
		return fmt.Errorf("association requires both endpoints")
	}
	if a.RelationType == "" {
		return fmt.Errorf("association requires a relation type")
	}
	if a.Weight < 0 || a.Weight > 1 {
		return fmt.Errorf("weight %v out of range [0,1]", a.Weight)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", a.Confidence)
	}
	return nil
}
