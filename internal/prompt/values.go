package prompt

import (
	"encoding/json"
	"fmt"
	"math"
)

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

// normalizeValue rewrites a decoded document so every decoder yields the same
// shapes: string-keyed maps, and whole numbers as int. JSON decoders produce
// float64 (or json.Number) where yaml.v3 produces int.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeValue(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) <= maxExactFloat {
			return int(v)
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return normalizeValue(f)
		}
		return v.String()
	default:
		return value
	}
}

// normalizeNodes applies normalizeValue to the properties of a restored tree.
func normalizeNodes(nodes []*Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for k, v := range n.Props {
			n.Props[k] = normalizeValue(v)
		}
		n.Options = normalizeValue(n.Options)
		n.TextInputs = normalizeValue(n.TextInputs)
		normalizeNodes(n.Subprompts)
	}
}
