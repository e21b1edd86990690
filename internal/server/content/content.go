// Package content turns the "content" value of a file request into the
// canonical JSON text that is stored, or rejects it.
//
// A client may send content either as an already-serialized JSON document
// (a string) or as a JSON structure. Strings are validated and stored verbatim;
// structures are encoded. Either way the stored value is JSON text.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
)

// Default is stored when a file is created without content.
const Default = "[]"

var (
	// ErrInvalidContentEncoding: a string payload is not valid JSON.
	ErrInvalidContentEncoding = fmt.Errorf("invalid content encoding: %w", common.ErrUnprocessable)
	// ErrContentNotSerializable: a structured payload cannot be encoded as JSON.
	ErrContentNotSerializable = fmt.Errorf("content not serializable: %w", common.ErrUnprocessable)
)

// Kind tells which variant a Raw holds.
type Kind int

const (
	KindString Kind = iota + 1
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStructured:
		return "structured"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Raw is a content value as submitted by a client, before normalization.
// The zero Raw has no kind and is rejected by Normalize.
type Raw struct {
	kind  Kind
	text  string
	value any
}

// String wraps a payload the client already serialized.
func String(s string) Raw { return Raw{kind: KindString, text: s} }

// Structured wraps any other value (object, array, number, bool, nil).
func Structured(v any) Raw { return Raw{kind: KindStructured, value: v} }

// Kind returns the variant of r.
func (r Raw) Kind() Kind { return r.kind }

// FromJSON classifies a raw JSON request value: a JSON string literal becomes
// the String variant holding the decoded string, everything else becomes the
// Structured variant. Numbers are kept as json.Number so they re-encode
// without losing precision.
func FromJSON(msg json.RawMessage) (Raw, error) {
	trimmed := bytes.TrimSpace(msg)

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Raw{}, fmt.Errorf("%w: %v", ErrInvalidContentEncoding, err)
		}
		return String(s), nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Raw{}, fmt.Errorf("%w: %v", ErrInvalidContentEncoding, err)
	}
	if dec.More() {
		return Raw{}, fmt.Errorf("%w: trailing data after value", ErrInvalidContentEncoding)
	}
	return Structured(v), nil
}

// Normalize returns the canonical stored form of r.
//
// A String payload must parse as JSON and is returned unchanged, byte for
// byte. A Structured payload is encoded (no HTML escaping, no trailing
// newline).
func Normalize(r Raw) (string, error) {
	switch r.kind {
	case KindString:
		var v json.RawMessage
		if err := json.Unmarshal([]byte(r.text), &v); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidContentEncoding, err)
		}
		return r.text, nil

	case KindStructured:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r.value); err != nil {
			return "", fmt.Errorf("%w: %v", ErrContentNotSerializable, err)
		}
		return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
	}

	return "", fmt.Errorf("%w: unknown content kind %v", ErrContentNotSerializable, r.kind)
}
