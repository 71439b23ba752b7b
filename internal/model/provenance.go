package model

import "time"

// Provenance is write metadata: who caused the write, when, and with what
// confidence. It is attached to every store write but is not separately
// queryable in the minimal model.
type Provenance struct {
	Source     string    `json:"source"` // user, tool, doc, system
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// Prov builds provenance stamped now with full confidence.
func Prov(source string) Provenance {
	return Provenance{Source: source, Timestamp: time.Now().UTC(), Confidence: 1.0}
}
