package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Document kinds.
const (
	KindObject = "object"
	KindArray  = "array"
)

var utf8BOM = []byte("\xEF\xBB\xBF")

var (
	errEmptyDocument = errors.New("empty document")
	errTrailingData  = errors.New("unexpected data after top-level value")
)

// Document is one parsed JSON resource. It never changes after Parse: every
// accessor hands out copies, so a *Document can be shared freely.
type Document struct {
	raw     []byte // source bytes exactly as read, BOM included
	compact []byte // raw without BOM or insignificant whitespace
	value   any    // map[string]any or []any, numbers as json.Number
	kind    string
}

// Parse decodes data into a Document. The top-level value must be a JSON
// object or array and must be the only value in data. A leading UTF-8 byte
// order mark is skipped.
func Parse(data []byte) (*Document, error) {
	body := bytes.TrimPrefix(data, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyDocument
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errTrailingData
	}

	var kind string
	switch v.(type) {
	case map[string]any:
		kind = KindObject
	case []any:
		kind = KindArray
	default:
		return nil, fmt.Errorf("top-level value must be an object or array, got %s", typeName(v))
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, err
	}

	raw := make([]byte, len(data))
	copy(raw, data)
	return &Document{
		raw:     raw,
		compact: buf.Bytes(),
		value:   v,
		kind:    kind,
	}, nil
}

// Kind returns KindObject or KindArray.
func (d *Document) Kind() string {
	return d.kind
}

// Raw returns a copy of the source bytes, including any byte order mark.
func (d *Document) Raw() []byte {
	out := make([]byte, len(d.raw))
	copy(out, d.raw)
	return out
}

// Value returns a deep copy of the parsed document. Numbers are json.Number.
func (d *Document) Value() any {
	return deepCopy(d.value)
}

// Decode unmarshals the document into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.compact, v)
}

// Lookup walks path through the document and returns a copy of the value it
// names. Object members are addressed by key, array elements by decimal index.
// An empty path returns the whole document.
func (d *Document) Lookup(path ...string) (any, bool) {
	cur := d.value
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return deepCopy(cur), true
}

// Len returns the number of members of an object or elements of an array.
func (d *Document) Len() int {
	switch node := d.value.(type) {
	case map[string]any:
		return len(node)
	case []any:
		return len(node)
	}
	return 0
}

// MarshalJSON renders the document in compact form.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make([]byte, len(d.compact))
	copy(out, d.compact)
	return out, nil
}

// Equal reports whether two documents have the same compact encoding.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return bytes.Equal(d.compact, other.compact)
}

func deepCopy(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = deepCopy(child)
		}
		return out
	default:
		// string, json.Number, bool, nil
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
