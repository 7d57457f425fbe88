package domain

import "encoding/json"

// DecodeMetadata recovers the typed entity payload from a RankedResult's
// Metadata field. Fresh results carry the concrete struct; results that
// round-tripped through the JSON cache carry map[string]any. Both decode
// through JSON so callers never care which one they got.
func DecodeMetadata[T any](meta any) (T, bool) {
	var zero T
	if typed, ok := meta.(T); ok {
		return typed, true
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false
	}
	return out, true
}
