package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mnemograph/internal/model"
)

// parseProp turns a flag argument of the form key=value or key:type=value
// into a named value. Untyped values default to string.
func parseProp(arg string) (string, model.Value, error) {
	eq := strings.Index(arg, "=")
	if eq < 0 {
		return "", model.Value{}, fmt.Errorf("property %q: expected key=value", arg)
	}
	key, raw := arg[:eq], arg[eq+1:]

	valueType := model.TypeString
	if colon := strings.Index(key, ":"); colon >= 0 {
		valueType = model.ValueType(key[colon+1:])
		key = key[:colon]
	}
	if key == "" {
		return "", model.Value{}, fmt.Errorf("property %q: empty key", arg)
	}

	v, err := parseValue(valueType, raw)
	if err != nil {
		return "", model.Value{}, fmt.Errorf("property %q: %w", key, err)
	}
	return key, v, nil
}

func parseValue(valueType model.ValueType, raw string) (model.Value, error) {
	switch valueType {
	case model.TypeString:
		return model.String(raw), nil
	case model.TypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("parsing number: %w", err)
		}
		return model.Number(n), nil
	case model.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return model.Value{}, fmt.Errorf("parsing bool: %w", err)
		}
		return model.Bool(b), nil
	case model.TypeTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.Value{}, fmt.Errorf("parsing datetime: %w", err)
		}
		return model.Time(t), nil
	case model.TypeURL:
		return model.URL(raw), nil
	case model.TypeRef:
		return model.Ref(raw), nil
	case model.TypeJSON:
		if !json.Valid([]byte(raw)) {
			return model.Value{}, fmt.Errorf("invalid JSON value")
		}
		return model.JSON([]byte(raw)), nil
	default:
		return model.Value{}, fmt.Errorf("unknown value type %q", valueType)
	}
}

func parseProps(args []string) (map[string]model.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	props := make(map[string]model.Value, len(args))
	for _, arg := range args {
		key, v, err := parseProp(arg)
		if err != nil {
			return nil, err
		}
		props[key] = v
	}
	return props, nil
}
