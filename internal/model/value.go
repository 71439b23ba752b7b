package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ValueType discriminates the variants of a property Value.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeBool   ValueType = "bool"
	TypeTime   ValueType = "datetime"
	TypeURL    ValueType = "url"
	TypeRef    ValueType = "ref"  // reference to another entity by uuid
	TypeJSON   ValueType = "json" // opaque JSON blob
)

// Value is a tagged-variant property value. Exactly one payload field is
// meaningful, selected by Type. The zero Value is invalid.
type Value struct {
	Type ValueType
	Str  string
	Num  float64
	Bool bool
	Time time.Time
	Raw  json.RawMessage
}

func String(s string) Value  { return Value{Type: TypeString, Str: s} }
func Number(n float64) Value { return Value{Type: TypeNumber, Num: n} }
func Bool(b bool) Value      { return Value{Type: TypeBool, Bool: b} }
func Time(t time.Time) Value { return Value{Type: TypeTime, Time: t} }
func URL(u string) Value     { return Value{Type: TypeURL, Str: u} }
func Ref(uuid string) Value  { return Value{Type: TypeRef, Str: uuid} }
func JSON(raw []byte) Value  { return Value{Type: TypeJSON, Raw: json.RawMessage(raw)} }

// Validate checks that the variant is well-formed for its declared type.
func (v Value) Validate() error {
	switch v.Type {
	case TypeString, TypeBool, TypeTime:
		return nil
	case TypeNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return fmt.Errorf("number value must be finite")
		}
		return nil
	case TypeURL, TypeRef:
		if v.Str == "" {
			return fmt.Errorf("%s value must not be empty", v.Type)
		}
		return nil
	case TypeJSON:
		if !json.Valid(v.Raw) {
			return fmt.Errorf("json value is not valid JSON")
		}
		return nil
	default:
		return fmt.Errorf("unknown value type %q", v.Type)
	}
}

// Text renders the value as a plain string for embedding and display.
func (v Value) Text() string {
	switch v.Type {
	case TypeString, TypeURL, TypeRef:
		return v.Str
	case TypeNumber:
		// Trim trailing zeros so 40 renders as "40", not "40.000000"
		return trimFloat(v.Num)
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeTime:
		return v.Time.UTC().Format(time.RFC3339)
	case TypeJSON:
		return string(v.Raw)
	}
	return ""
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeString, TypeURL, TypeRef:
		return v.Str == o.Str
	case TypeNumber:
		return v.Num == o.Num
	case TypeBool:
		return v.Bool == o.Bool
	case TypeTime:
		return v.Time.Equal(o.Time)
	case TypeJSON:
		return string(v.Raw) == string(o.Raw)
	}
	return false
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// valueJSON is the wire form: {"type":"number","value":40}
type valueJSON struct {
	Type  ValueType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Type {
	case TypeString, TypeURL, TypeRef:
		payload = v.Str
	case TypeNumber:
		payload = v.Num
	case TypeBool:
		payload = v.Bool
	case TypeTime:
		payload = v.Time.UTC().Format(time.RFC3339Nano)
	case TypeJSON:
		return json.Marshal(valueJSON{Type: v.Type, Value: v.Raw})
	default:
		return nil, fmt.Errorf("cannot marshal value of unknown type %q", v.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.Type, Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var wire valueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	v.Type = wire.Type
	switch wire.Type {
	case TypeString, TypeURL, TypeRef:
		return json.Unmarshal(wire.Value, &v.Str)
	case TypeNumber:
		return json.Unmarshal(wire.Value, &v.Num)
	case TypeBool:
		return json.Unmarshal(wire.Value, &v.Bool)
	case TypeTime:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		v.Time = t
		return nil
	case TypeJSON:
		v.Raw = wire.Value
		return nil
	default:
		return fmt.Errorf("cannot unmarshal value of unknown type %q", wire.Type)
	}
}
