// Package odgs is the Open Data Governance Schema bundle: the protocol
// reference documents plus the physical data map and the ontology graph, each
// bound to a fixed key.
//
//	b := odgs.MustLoad()
//	metrics := b.MustGet(odgs.StandardMetrics)
//
// Documents are opaque to this package. It never inspects, validates or
// mutates them.
package odgs

import (
	"io/fs"
	"sync"

	"github.com/odgs/odgs/bundle"
	"github.com/odgs/odgs/protocol"
	"github.com/odgs/odgs/protocol/lib"
)

// Bundle keys. The first five are shared with the protocol bundle.
const (
	StandardMetrics      = protocol.StandardMetrics
	StandardDqDimensions = protocol.StandardDqDimensions
	StandardDataRules    = protocol.StandardDataRules
	RootCauseFactors     = protocol.RootCauseFactors
	BusinessProcessMaps  = protocol.BusinessProcessMaps

	PhysicalDataMap bundle.Key = "physicalDataMap"
	OntologyGraph   bundle.Key = "ontologyGraph"
)

// ExtraResources returns the documents that exist only in the full bundle.
func ExtraResources() []bundle.Resource {
	return []bundle.Resource{
		{Key: PhysicalDataMap, Path: "physical_data_map.json"},
		{Key: OntologyGraph, Path: "ontology_graph.json"},
	}
}

// Resources returns all seven documents in bundle order.
func Resources() []bundle.Resource {
	return append(protocol.Resources(), ExtraResources()...)
}

// Keys returns the full bundle keys in order.
func Keys() []bundle.Key {
	keys := protocol.Keys()
	for _, r := range ExtraResources() {
		keys = append(keys, r.Key)
	}
	return keys
}

var (
	loadOnce sync.Once
	loaded   *bundle.Bundle
	loadErr  error
)

// Load returns the embedded full bundle. Its first five documents are the
// protocol bundle's own documents, shared rather than re-read. The first call
// does the work; later calls return the same *Bundle, or the same error.
func Load() (*bundle.Bundle, error) {
	loadOnce.Do(func() {
		base, err := protocol.Load()
		if err != nil {
			loadErr = err
			return
		}
		loaded, loadErr = bundle.Compose(base, lib.FS, ExtraResources())
	})
	return loaded, loadErr
}

// MustLoad is Load that panics on failure.
func MustLoad() *bundle.Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// LoadFS loads the full bundle from fsys without caching. All seven documents
// must sit at the root of fsys.
func LoadFS(fsys fs.FS) (*bundle.Bundle, error) {
	base, err := protocol.LoadFS(fsys)
	if err != nil {
		return nil, err
	}
	return bundle.Compose(base, fsys, ExtraResources())
}
