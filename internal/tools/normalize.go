package tools

import (
	"encoding/json"
	"fmt"
)

// Normalize converts an arbitrary handler result into a JSON-safe shape:
// maps, slices, strings, bools, numbers, nil. Structs and everything else
// are flattened to plain key/value maps recursively. Primitive values pass
// through unchanged, so the conversion is idempotent.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return t
	case uint:
		return t
	case uint32:
		return uint(t)
	case uint64:
		return t
	case json.Number:
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return string(raw)
		}
		return Normalize(decoded)
	}
}
