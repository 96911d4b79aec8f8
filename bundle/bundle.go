// Package bundle holds the types shared by the governance document loaders:
// the immutable Document, the fixed-key Bundle, and ResourceLoadError, the one
// error a loader can return.
//
// A Bundle is built once from an fs.FS and a fixed list of Resources. Loading
// is all-or-nothing: the first resource that is missing, unreadable or not a
// JSON object/array aborts the load and no Bundle is returned.
package bundle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
)

// Key names one document within a Bundle.
type Key string

// Resource binds a Key to a file path inside an fs.FS.
type Resource struct {
	Key  Key
	Path string
}

// ResourceLoadError reports a document that could not be read or parsed.
type ResourceLoadError struct {
	Key  Key
	Path string
	Err  error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Key, e.Path, e.Err)
}

func (e *ResourceLoadError) Unwrap() error {
	return e.Err
}

// Bundle maps a fixed, ordered key set to parsed documents. It has no mutators.
type Bundle struct {
	keys []Key
	docs map[Key]*Document
}

// Load reads and parses every resource from fsys in order.
func Load(fsys fs.FS, resources []Resource) (*Bundle, error) {
	b := &Bundle{
		keys: make([]Key, 0, len(resources)),
		docs: make(map[Key]*Document, len(resources)),
	}
	if err := b.load(fsys, resources); err != nil {
		return nil, err
	}
	return b, nil
}

// Compose returns a new Bundle holding base's documents followed by extra,
// loaded from fsys. Documents from base are shared, not re-read.
func Compose(base *Bundle, fsys fs.FS, extra []Resource) (*Bundle, error) {
	b := &Bundle{
		keys: make([]Key, 0, len(base.keys)+len(extra)),
		docs: make(map[Key]*Document, len(base.keys)+len(extra)),
	}
	for _, k := range base.keys {
		b.keys = append(b.keys, k)
		b.docs[k] = base.docs[k]
	}
	if err := b.load(fsys, extra); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bundle) load(fsys fs.FS, resources []Resource) error {
	for _, r := range resources {
		if _, dup := b.docs[r.Key]; dup {
			return &ResourceLoadError{Key: r.Key, Path: r.Path, Err: fmt.Errorf("duplicate key %q", r.Key)}
		}

		data, err := fs.ReadFile(fsys, r.Path)
		if err != nil {
			return &ResourceLoadError{Key: r.Key, Path: r.Path, Err: err}
		}

		doc, err := Parse(data)
		if err != nil {
			return &ResourceLoadError{Key: r.Key, Path: r.Path, Err: fmt.Errorf("parse: %w", err)}
		}

		b.keys = append(b.keys, r.Key)
		b.docs[r.Key] = doc
	}
	return nil
}

// Keys returns the bundle's keys in declaration order.
func (b *Bundle) Keys() []Key {
	out := make([]Key, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of documents.
func (b *Bundle) Len() int {
	return len(b.keys)
}

// Has reports whether k is one of the bundle's keys.
func (b *Bundle) Has(k Key) bool {
	_, ok := b.docs[k]
	return ok
}

// Get returns the document bound to k.
func (b *Bundle) Get(k Key) (*Document, bool) {
	d, ok := b.docs[k]
	return d, ok
}

// MustGet returns the document bound to k and panics if k is not a bundle key.
// Bundle keys are fixed at build time, so an unknown key is a programming error.
func (b *Bundle) MustGet(k Key) *Document {
	d, ok := b.docs[k]
	if !ok {
		panic(fmt.Sprintf("bundle: unknown key %q", k))
	}
	return d
}

// Digest returns the hex SHA-256 of the bundle content: for each key in order,
// the key, a NUL byte, the compact document, and a NUL byte.
func (b *Bundle) Digest() string {
	h := sha256.New()
	for _, k := range b.keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write(b.docs[k].compact)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalJSON renders the bundle as one object with keys in declaration order.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(b.docs[k].compact)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
