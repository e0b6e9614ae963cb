package petfriends

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Result is the outcome of one call: the HTTP status and the parsed body.
type Result struct {
	Status int
	Body   Body
}

// OK reports whether the status is in the 2xx range.
func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ClientError reports whether the status is in the 4xx range.
func (r Result) ClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

// BodyKind tags which variant a Body holds.
type BodyKind int

const (
	// BodyText is an opaque payload: plain text, HTML, an empty body, or JSON that is not an object.
	BodyText BodyKind = iota
	// BodyJSON is a decoded JSON object.
	BodyJSON
)

func (k BodyKind) String() string {
	if k == BodyJSON {
		return "json"
	}
	return "text"
}

// Body is either a decoded JSON object or raw text. The zero value is an empty text body.
// Field accessors return false on text bodies instead of failing.
type Body struct {
	kind BodyKind
	raw  []byte
	obj  map[string]any
}

// ParseBody decodes raw as a JSON object, degrading to a text body when it is anything else.
func ParseBody(raw []byte) Body {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil && !dec.More() {
			return Body{kind: BodyJSON, raw: raw, obj: obj}
		}
	}
	return Body{kind: BodyText, raw: raw}
}

// TextBody builds a text body, mostly useful in tests.
func TextBody(s string) Body {
	return Body{kind: BodyText, raw: []byte(s)}
}

// Kind returns the active variant.
func (b Body) Kind() BodyKind { return b.kind }

// IsJSON reports whether the body decoded to a JSON object.
func (b Body) IsJSON() bool { return b.kind == BodyJSON }

// IsEmpty reports whether the service sent no payload at all.
func (b Body) IsEmpty() bool { return len(bytes.TrimSpace(b.raw)) == 0 }

// Raw returns the bytes exactly as received.
func (b Body) Raw() []byte { return b.raw }

// Text returns the body as received, decoded as UTF-8 text.
func (b Body) Text() string { return string(b.raw) }

// Object returns the decoded JSON object, or nil for text bodies.
func (b Body) Object() map[string]any { return b.obj }

// Has reports whether field is present in a JSON body.
func (b Body) Has(field string) bool {
	if b.kind != BodyJSON {
		return false
	}
	_, ok := b.obj[field]
	return ok
}

// String returns field rendered as text. Numbers are formatted without exponent.
func (b Body) String(field string) (string, bool) {
	if b.kind != BodyJSON {
		return "", false
	}
	v, ok := b.obj[field]
	if !ok {
		return "", false
	}
	return stringify(v), true
}

// Key returns the auth key of an authenticate response.
func (b Body) Key() (string, bool) {
	key, ok := b.String(FieldKey)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Pets returns the pets of a listing response. ok is false when the field is absent or not a list.
func (b Body) Pets() ([]Pet, bool) {
	if b.kind != BodyJSON {
		return nil, false
	}
	raw, ok := b.obj[FieldPets].([]any)
	if !ok {
		return nil, false
	}
	pets := make([]Pet, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		pets = append(pets, petFromObject(obj))
	}
	return pets, true
}

// Pet returns the single pet record of a create/update/photo response.
func (b Body) Pet() (Pet, bool) {
	if b.kind != BodyJSON || !b.Has("id") {
		return Pet{}, false
	}
	return petFromObject(b.obj), true
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
