// Package bbolt stores a governance bundle export in a single bbolt file.
// The "documents" bucket maps each resource path to its raw JSON bytes; the
// "meta" bucket records the bundle digest, the ordered resource list and the
// export time. Each export replaces the previous one in one transaction, so a
// reader never sees a mix of two exports.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing/fstest"
	"time"

	"github.com/odgs/odgs/bundle"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketDocuments = []byte("documents")
	bucketMeta      = []byte("meta")
	keyDigest       = []byte("digest")
	keyResources    = []byte("resources")
	keyExportedAt   = []byte("exported_at")
)

// ErrNoExport is returned by readers when the file holds no export yet.
var ErrNoExport = errors.New("no bundle export in store")

// resourceJSON is the stored form of a bundle.Resource.
type resourceJSON struct {
	Key  bundle.Key `json:"key"`
	Path string     `json:"path"`
}

// Store is a bundle export backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBundle writes every document of b under its resource path. resources
// must name exactly the keys of b.
func (s *Store) SaveBundle(b *bundle.Bundle, resources []bundle.Resource) error {
	if b == nil {
		return fmt.Errorf("nil bundle")
	}
	if len(resources) != b.Len() {
		return fmt.Errorf("bundle has %d documents, got %d resources", b.Len(), len(resources))
	}

	list := make([]resourceJSON, len(resources))
	keys := make(map[bundle.Key]bool, len(resources))
	paths := make(map[string]bool, len(resources))
	for i, r := range resources {
		if !b.Has(r.Key) {
			return fmt.Errorf("resource %s is not in the bundle", r.Key)
		}
		if keys[r.Key] {
			return fmt.Errorf("duplicate resource key %s", r.Key)
		}
		if paths[r.Path] {
			return fmt.Errorf("duplicate resource path %s", r.Path)
		}
		keys[r.Key] = true
		paths[r.Path] = true
		list[i] = resourceJSON{Key: r.Key, Path: r.Path}
	}
	listJSON, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal resources: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDocuments, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		docs, err := tx.CreateBucket(bucketDocuments)
		if err != nil {
			return err
		}
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}

		for _, r := range resources {
			if err := docs.Put([]byte(r.Path), b.MustGet(r.Key).Raw()); err != nil {
				return err
			}
		}
		if err := meta.Put(keyResources, listJSON); err != nil {
			return err
		}
		if err := meta.Put(keyDigest, []byte(b.Digest())); err != nil {
			return err
		}
		return meta.Put(keyExportedAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Resources returns the exported resources in bundle order.
func (s *Store) Resources() ([]bundle.Resource, error) {
	data, err := s.metaValue(keyResources)
	if err != nil {
		return nil, err
	}
	var list []resourceJSON
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal resources: %w", err)
	}
	out := make([]bundle.Resource, len(list))
	for i, r := range list {
		out[i] = bundle.Resource{Key: r.Key, Path: r.Path}
	}
	return out, nil
}

// Keys returns the exported bundle keys in order.
func (s *Store) Keys() ([]bundle.Key, error) {
	res, err := s.Resources()
	if err != nil {
		return nil, err
	}
	keys := make([]bundle.Key, len(res))
	for i, r := range res {
		keys[i] = r.Key
	}
	return keys, nil
}

// Digest returns the digest recorded at export time.
func (s *Store) Digest() (string, error) {
	data, err := s.metaValue(keyDigest)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportedAt returns the time of the last export.
func (s *Store) ExportedAt() (time.Time, error) {
	data, err := s.metaValue(keyExportedAt)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, string(data))
}

// FS returns the exported documents as an in-memory filesystem, one file per
// resource path, suitable for odgs.LoadFS.
func (s *Store) FS() (fs.FS, error) {
	out := fstest.MapFS{}
	err := s.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		if docs == nil {
			return ErrNoExport
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		return docs.ForEach(func(k, v []byte) error {
			data := make([]byte, len(v))
			copy(data, v)
			out[string(k)] = &fstest.MapFile{Data: data, Mode: 0444}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) metaValue(key []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return ErrNoExport
		}
		v := meta.Get(key)
		if v == nil {
			return fmt.Errorf("meta %s missing: %w", key, ErrNoExport)
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	return data, err
}
