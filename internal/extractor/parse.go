package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Kalpithaac/enitity/internal/types"
)

// ErrModelOutputInvalid is returned when the model reply is not valid JSON.
var ErrModelOutputInvalid = errors.New("invalid JSON from model")

// ParseFields accepts any JSON value and returns it compacted. Object keys
// keep the order the model wrote them in; a repeated key takes its last
// value at the position of its first occurrence.
func ParseFields(content string) (types.FieldValues, error) {
	raw := bytes.TrimSpace([]byte(content))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrModelOutputInvalid)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrModelOutputInvalid)
	}

	var buf bytes.Buffer
	if err := normalize(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutputInvalid, err)
	}
	return types.FieldValues(buf.Bytes()), nil
}

// normalize writes raw compacted, resolving duplicate object keys at every
// depth. raw must already be valid JSON.
func normalize(buf *bytes.Buffer, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	switch raw[0] {
	case '{':
		return normalizeObject(buf, raw)
	case '[':
		return normalizeArray(buf, raw)
	}
	return json.Compact(buf, raw)
}

func normalizeObject(buf *bytes.Buffer, raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return err
	}

	var (
		keys []string
		vals [][]byte
		pos  = map[string]int{}
	)
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := t.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
		var vb bytes.Buffer
		if err := normalize(&vb, v); err != nil {
			return err
		}
		if i, ok := pos[key]; ok {
			vals[i] = vb.Bytes()
			continue
		}
		pos[key] = len(keys)
		keys = append(keys, key)
		vals = append(vals, vb.Bytes())
	}

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		buf.Write(vals[i])
	}
	buf.WriteByte('}')
	return nil
}

func normalizeArray(buf *bytes.Buffer, raw []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	buf.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := normalize(buf, it); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}
