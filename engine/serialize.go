package engine

// Set/Map envelope serialization. encoding/json has no native representation
// for Go's map[string]struct{} (used here as a set) or for maps with
// non-string semantics callers want preserved across a JSON round-trip
// (ordering metadata, key typing). The teacher's AsyncTask.MarshalJSON (in
// agent/persistence/task_store.go) hand-rolls the same kind of envelope for
// time.Duration <-> string; EncodeValue/DecodeValue generalize that pattern
// to sets and maps so engine.Context snapshots round-trip through any
// PersistenceLayer backend without losing the set/map distinction.

// setEnvelope and mapEnvelope are the wire shapes documented in
// SPEC_FULL.md §4.6: {"type":"Set","value":[...]} / {"type":"Map","value":{...}}.
type setEnvelope struct {
	Type  string `json:"type"`
	Value []any  `json:"value"`
}

type mapEnvelope struct {
	Type  string         `json:"type"`
	Value map[string]any `json:"value"`
}

// EncodeValue converts a Go value into its JSON-serializable envelope form.
// map[string]struct{} becomes a Set envelope; map[string]any (and other
// map[string]V in practice, via the any value already having been type
// erased upstream) becomes a Map envelope; everything else passes through
// unchanged, recursing into slices and maps so nested sets/maps also get
// enveloped.
func EncodeValue(v any) any {
	switch val := v.(type) {
	case map[string]struct{}:
		items := make([]any, 0, len(val))
		for k := range val {
			items = append(items, k)
		}
		return setEnvelope{Type: "Set", Value: items}
	case map[string]any:
		encoded := make(map[string]any, len(val))
		for k, item := range val {
			encoded[k] = EncodeValue(item)
		}
		return mapEnvelope{Type: "Map", Value: encoded}
	case []any:
		encoded := make([]any, len(val))
		for i, item := range val {
			encoded[i] = EncodeValue(item)
		}
		return encoded
	default:
		return v
	}
}

// DecodeValue reverses EncodeValue after a value has round-tripped through
// encoding/json, where envelopes arrive as map[string]any with a "type"
// discriminator rather than as the setEnvelope/mapEnvelope structs.
func DecodeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		typ, _ := val["type"].(string)
		switch typ {
		case "Set":
			items, _ := val["value"].([]any)
			set := make(map[string]struct{}, len(items))
			for _, item := range items {
				if s, ok := item.(string); ok {
					set[s] = struct{}{}
				}
			}
			return set
		case "Map":
			raw, _ := val["value"].(map[string]any)
			decoded := make(map[string]any, len(raw))
			for k, item := range raw {
				decoded[k] = DecodeValue(item)
			}
			return decoded
		default:
			decoded := make(map[string]any, len(val))
			for k, item := range val {
				decoded[k] = DecodeValue(item)
			}
			return decoded
		}
	case []any:
		decoded := make([]any, len(val))
		for i, item := range val {
			decoded[i] = DecodeValue(item)
		}
		return decoded
	default:
		return v
	}
}
