package protocol

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/odgs/odgs/bundle"
	"github.com/odgs/odgs/protocol/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// libCopy returns a writable in-memory copy of the embedded documents.
func libCopy(t *testing.T) fstest.MapFS {
	t.Helper()
	out := fstest.MapFS{}
	entries, err := fs.ReadDir(lib.FS, ".")
	require.NoError(t, err)
	for _, e := range entries {
		data, err := fs.ReadFile(lib.FS, e.Name())
		require.NoError(t, err)
		out[e.Name()] = &fstest.MapFile{Data: data}
	}
	return out
}

func TestLoad_ExactlyFiveKeys(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []bundle.Key{
		StandardMetrics,
		StandardDqDimensions,
		StandardDataRules,
		RootCauseFactors,
		BusinessProcessMaps,
	}, b.Keys())
	assert.Equal(t, Keys(), b.Keys())
}

func TestLoad_Idempotent(t *testing.T) {
	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, MustLoad())
}

func TestLoad_DocumentsMatchFiles(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	for _, r := range Resources() {
		data, err := fs.ReadFile(lib.FS, r.Path)
		require.NoError(t, err)

		want, err := bundle.Parse(data)
		require.NoError(t, err)

		got := b.MustGet(r.Key)
		assert.Equal(t, data, got.Raw(), "%s raw bytes", r.Key)
		assert.True(t, want.Equal(got), "%s parse", r.Key)
	}
}

func TestLoadFS_MetricUnitLookup(t *testing.T) {
	fsys := libCopy(t)
	fsys["standard_metrics.json"] = &fstest.MapFile{Data: []byte(`{"m1": {"unit": "percent"}}`)}

	b, err := LoadFS(fsys)
	require.NoError(t, err)

	unit, ok := b.MustGet(StandardMetrics).Lookup("m1", "unit")
	require.True(t, ok)
	assert.Equal(t, "percent", unit)
}

func TestLoadFS_MissingDocumentIsFatal(t *testing.T) {
	for _, r := range Resources() {
		t.Run(string(r.Key), func(t *testing.T) {
			fsys := libCopy(t)
			delete(fsys, r.Path)

			b, err := LoadFS(fsys)
			assert.Nil(t, b)

			var rle *bundle.ResourceLoadError
			require.True(t, errors.As(err, &rle))
			assert.Equal(t, r.Key, rle.Key)
			assert.True(t, errors.Is(err, fs.ErrNotExist))
		})
	}
}

func TestLoadFS_CorruptDocumentIsFatal(t *testing.T) {
	fsys := libCopy(t)
	fsys["root_cause_factors.json"] = &fstest.MapFile{Data: []byte(`[{"factor_id": `)}

	b, err := LoadFS(fsys)
	assert.Nil(t, b)

	var rle *bundle.ResourceLoadError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, RootCauseFactors, rle.Key)
}

func TestLoadFS_IgnoresOuterOnlyDocuments(t *testing.T) {
	fsys := libCopy(t)
	delete(fsys, "physical_data_map.json")
	delete(fsys, "ontology_graph.json")

	b, err := LoadFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Len())
}
