package dbschema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceString converts a query-string scalar into a bind value matching
// the column's semantic type. Filter operands are always strings on the
// wire; coercion happens before any SQL is constructed so that a bad
// operand is a validation failure, never a query failure.
func CoerceString(t SemanticType, raw string) (any, error) {
	switch t {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	default:
		// string, timestamp, json, binary: the driver parses text forms.
		return raw, nil
	}
}

// CoerceJSON converts a decoded payload value into a bind value matching
// the column's semantic type. encoding/json produces float64, string,
// bool, nil, map and slice; GraphQL argument maps additionally carry
// native int values.
func CoerceJSON(t SemanticType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case TypeInteger:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected integer, got fractional %v", n)
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", v)
		}
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case TypeJSON:
		switch val := v.(type) {
		case string:
			return val, nil
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("value is not serializable as json")
			}
			return string(raw), nil
		}
	case TypeTimestamp, TypeString, TypeBinary:
		switch val := v.(type) {
		case string:
			return val, nil
		case float64, bool:
			return fmt.Sprint(val), nil
		default:
			return nil, fmt.Errorf("expected string, got %T", v)
		}
	default:
		return v, nil
	}
}
