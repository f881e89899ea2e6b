// Package maputil copies and merges the generic maps produced by decoding
// YAML template variables.
package maputil

// Clone returns a deep copy of src. Nested maps and slices are copied;
// scalar values are shared.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}

	return dst
}

func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, v := range src {
		dst[i] = cloneValue(v)
	}

	return dst
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Clone(val)
	case []any:
		return cloneSlice(val)
	default:
		return v
	}
}

// Merge deep-merges src into dst and returns dst. Nested maps present on
// both sides are merged key by key; any other value in src replaces the one
// in dst, lists included. src is never aliased by the result.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}

	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)

		if srcIsMap && dstIsMap {
			dst[k] = Merge(dstMap, srcMap)
			continue
		}

		dst[k] = cloneValue(v)
	}

	return dst
}
