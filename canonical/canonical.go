// Package canonical produces deterministic JSON encodings for hashing.
//
// Object keys are sorted lexicographically and no whitespace is emitted, so
// two structurally equal values always encode to the same bytes regardless of
// key insertion order. Every hash in the governance ledger is computed over
// these bytes; an encoder that disagreed on canonical form would disagree on
// every hash after it.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal encodes v as compact JSON with sorted object keys.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}

	// Round-trip through a generic value so struct payloads and map payloads
	// canonicalize identically. UseNumber keeps numeric text verbatim instead
	// of forcing float64 formatting.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical decode: %w", err)
	}

	var buf bytes.Buffer
	if err := write(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalString is Marshal with a string result, for callers that store or
// hash the encoding as text.
func MarshalString(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func write(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("canonical key: %w", err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := write(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case json.Number:
		buf.WriteString(t.String())

	default:
		// strings, bools, nil
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("canonical scalar: %w", err)
		}
		buf.Write(b)
	}
	return nil
}
