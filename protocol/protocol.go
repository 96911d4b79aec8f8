// Package protocol loads the protocol sub-bundle: the five governance
// reference documents (metrics, data-quality dimensions, data rules, root-cause
// factors, business-process maps) embedded under protocol/lib.
//
// The embedded bundle is loaded once, on first use, and shared by every caller.
package protocol

import (
	"io/fs"
	"sync"

	"github.com/odgs/odgs/bundle"
	"github.com/odgs/odgs/protocol/lib"
)

// Bundle keys.
const (
	StandardMetrics      bundle.Key = "standardMetrics"
	StandardDqDimensions bundle.Key = "standardDqDimensions"
	StandardDataRules    bundle.Key = "standardDataRules"
	RootCauseFactors     bundle.Key = "rootCauseFactors"
	BusinessProcessMaps  bundle.Key = "businessProcessMaps"
)

// Resources returns the protocol documents, with paths relative to lib.FS.
func Resources() []bundle.Resource {
	return []bundle.Resource{
		{Key: StandardMetrics, Path: "standard_metrics.json"},
		{Key: StandardDqDimensions, Path: "standard_dq_dimensions.json"},
		{Key: StandardDataRules, Path: "standard_data_rules.json"},
		{Key: RootCauseFactors, Path: "root_cause_factors.json"},
		{Key: BusinessProcessMaps, Path: "business_process_maps.json"},
	}
}

// Keys returns the protocol bundle keys in order.
func Keys() []bundle.Key {
	res := Resources()
	keys := make([]bundle.Key, len(res))
	for i, r := range res {
		keys[i] = r.Key
	}
	return keys
}

var (
	loadOnce sync.Once
	loaded   *bundle.Bundle
	loadErr  error
)

// Load returns the embedded protocol bundle. The first call reads and parses
// the documents; later calls return the same *Bundle, or the same error.
func Load() (*bundle.Bundle, error) {
	loadOnce.Do(func() {
		loaded, loadErr = LoadFS(lib.FS)
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

// LoadFS loads the protocol bundle from fsys without caching. The five
// documents must sit at the root of fsys.
func LoadFS(fsys fs.FS) (*bundle.Bundle, error) {
	return bundle.Load(fsys, Resources())
}
