// Package correlate remembers which document produced a first-phase result
// (completion items, code lenses, code actions, call hierarchy items) by
// stamping its uri into the item's free-form data field, so that the
// matching resolve request can find the same engine again.
package correlate

import (
	"bytes"
	"encoding/json"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Key is the data field entry holding the origin document.
const Key = "uri"

// Attach returns data with Key set to uri. Object data keeps its other
// entries; anything else (nil, primitives, arrays) is replaced by a fresh
// object. The input is never modified.
func Attach(data any, uri protocol.DocumentUri) any {
	fields, ok := asObject(data)
	if !ok {
		return map[string]any{Key: uri}
	}
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged[Key] = uri
	return merged
}

// Recover reads the origin document back out of data.
func Recover(data any) (protocol.DocumentUri, bool) {
	fields, ok := asObject(data)
	if !ok {
		return "", false
	}
	uri, ok := fields[Key].(string)
	if !ok || uri == "" {
		return "", false
	}
	return uri, true
}

// asObject views data as a JSON object. Values decoded from the wire are
// already maps; typed engine payloads go through a JSON round trip.
func asObject(data any) (map[string]any, bool) {
	switch v := data.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, v != nil
	case json.RawMessage:
		return decodeObject(v)
	case string, bool, float64, int, int32, uint32, []any:
		return nil, false
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	return decodeObject(raw)
}

func decodeObject(raw []byte) (map[string]any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}
