package types

import (
	"bytes"
	"encoding/json"
)

// ExtractionRequest is the body of POST /extract-fields.
type ExtractionRequest struct {
	FileBase64 string   `json:"file_base64"`
	Fields     []string `json:"fields"`
}

// FieldValues is the JSON value returned by the model (normally an object),
// kept as compacted bytes so the model's key order survives to the response.
type FieldValues json.RawMessage

// EmptyFieldValues is returned when the document has no text.
func EmptyFieldValues() FieldValues {
	return FieldValues("{}")
}

func (f FieldValues) MarshalJSON() ([]byte, error) {
	if len(f) == 0 {
		return []byte("{}"), nil
	}
	return []byte(f), nil
}

// Map decodes the object for callers that need per-key access.
// Values that are not strings are rendered as their JSON text. A reply that
// is not an object yields an empty map.
func (f FieldValues) Map() map[string]string {
	out := map[string]string{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(f.orEmpty(), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(bytes.TrimSpace(v))
	}
	return out
}

// Len is the number of top-level keys.
func (f FieldValues) Len() int {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(f.orEmpty(), &raw); err != nil {
		return 0
	}
	return len(raw)
}

func (f FieldValues) orEmpty() []byte {
	if len(f) == 0 {
		return []byte("{}")
	}
	return f
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
