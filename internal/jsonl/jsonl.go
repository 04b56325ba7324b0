// Package jsonl decodes and encodes JSON Lines records.
package jsonl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Record is one decoded JSONL line: a free-form JSON object. No schema
// is enforced beyond the line being a JSON object.
type Record map[string]any

// Decode parses a single line as a JSON object. Lines holding valid
// JSON that is not an object (arrays, scalars, null) are rejected.
func Decode(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	// Unmarshaling "null" into a map succeeds and leaves it nil.
	if rec == nil {
		return nil, errors.New("decoding record: expected a JSON object, got null")
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding record: trailing data after object")
	}

	return rec, nil
}

// Keep returns a new record containing only the keys listed in fields.
// Keys absent from r are omitted, never null-filled. Values are carried
// over as-is, not copied.
func (r Record) Keep(fields []string) Record {
	out := make(Record, len(fields))

	for _, k := range fields {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}

	return out
}

// Encode serializes r as a single JSONL line without the trailing
// newline. Keys are emitted in the order given by fields; keys of r not
// listed in fields are skipped, so Encode(r, fields) is equivalent to
// Encode(r.Keep(fields), fields).
func Encode(r Record, fields []string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	first := true

	for _, k := range fields {
		v, ok := r[k]
		if !ok {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", k, err)
		}

		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding value for key %q: %w", k, err)
		}

		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
