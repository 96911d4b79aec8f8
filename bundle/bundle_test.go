package bundle

import (
	"encoding/json"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testResources = []Resource{
	{Key: "metrics", Path: "metrics.json"},
	{Key: "rules", Path: "rules.json"},
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"metrics.json": {Data: []byte(`{"m1": {"unit": "percent"}}`)},
		"rules.json":   {Data: []byte(`[{"rule_id": "r1"}]`)},
		"extra.json":   {Data: []byte(`{"nodes": []}`)},
	}
}

func TestLoad(t *testing.T) {
	b, err := Load(testFS(), testResources)
	require.NoError(t, err)

	assert.Equal(t, []Key{"metrics", "rules"}, b.Keys())
	assert.Equal(t, 2, b.Len())
	assert.True(t, b.Has("metrics"))
	assert.False(t, b.Has("extra"))

	unit, ok := b.MustGet("metrics").Lookup("m1", "unit")
	require.True(t, ok)
	assert.Equal(t, "percent", unit)
}

func TestLoad_MissingResource(t *testing.T) {
	fsys := testFS()
	delete(fsys, "rules.json")

	b, err := Load(fsys, testResources)
	assert.Nil(t, b, "no partial bundle on failure")
	require.Error(t, err)

	var rle *ResourceLoadError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, Key("rules"), rle.Key)
	assert.Equal(t, "rules.json", rle.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_MalformedResource(t *testing.T) {
	fsys := testFS()
	fsys["metrics.json"] = &fstest.MapFile{Data: []byte(`{"m1": `)}

	b, err := Load(fsys, testResources)
	assert.Nil(t, b)

	var rle *ResourceLoadError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, Key("metrics"), rle.Key)
	assert.Contains(t, err.Error(), "load metrics (metrics.json): parse:")
}

func TestLoad_ScalarTopLevelRejected(t *testing.T) {
	fsys := testFS()
	fsys["rules.json"] = &fstest.MapFile{Data: []byte(`"just a string"`)}

	_, err := Load(fsys, testResources)
	var rle *ResourceLoadError
	require.True(t, errors.As(err, &rle))
	assert.Contains(t, rle.Err.Error(), "got string")
}

func TestLoad_ByteOrderMarkAccepted(t *testing.T) {
	plain, err := Load(testFS(), testResources)
	require.NoError(t, err)

	fsys := testFS()
	fsys["metrics.json"] = &fstest.MapFile{Data: []byte("\xEF\xBB\xBF{\"m1\": {\"unit\": \"percent\"}}")}
	b, err := Load(fsys, testResources)
	require.NoError(t, err)
	assert.Equal(t, plain.Digest(), b.Digest())
}

func TestLoad_DuplicateKey(t *testing.T) {
	_, err := Load(testFS(), []Resource{
		{Key: "metrics", Path: "metrics.json"},
		{Key: "metrics", Path: "rules.json"},
	})
	var rle *ResourceLoadError
	require.True(t, errors.As(err, &rle))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestCompose_SharesBaseDocuments(t *testing.T) {
	fsys := testFS()
	base, err := Load(fsys, testResources)
	require.NoError(t, err)

	full, err := Compose(base, fsys, []Resource{{Key: "extra", Path: "extra.json"}})
	require.NoError(t, err)

	assert.Equal(t, []Key{"metrics", "rules", "extra"}, full.Keys())
	for _, k := range base.Keys() {
		assert.Same(t, base.MustGet(k), full.MustGet(k), "key %s must not be re-derived", k)
	}
	// base is untouched by composition
	assert.Equal(t, 2, base.Len())
}

func TestCompose_FailureIsAllOrNothing(t *testing.T) {
	fsys := testFS()
	base, err := Load(fsys, testResources)
	require.NoError(t, err)

	full, err := Compose(base, fsys, []Resource{{Key: "extra", Path: "missing.json"}})
	assert.Nil(t, full)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCompose_KeyCollision(t *testing.T) {
	fsys := testFS()
	base, err := Load(fsys, testResources)
	require.NoError(t, err)

	_, err = Compose(base, fsys, []Resource{{Key: "rules", Path: "extra.json"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestMustGet_UnknownKeyPanics(t *testing.T) {
	b, err := Load(testFS(), testResources)
	require.NoError(t, err)
	assert.Panics(t, func() { b.MustGet("nope") })
}

func TestDigest(t *testing.T) {
	b1, err := Load(testFS(), testResources)
	require.NoError(t, err)

	// Whitespace-only differences leave the digest unchanged.
	fsys := testFS()
	fsys["metrics.json"] = &fstest.MapFile{Data: []byte("{\n  \"m1\": {\"unit\": \"percent\"}\n}\n")}
	b2, err := Load(fsys, testResources)
	require.NoError(t, err)
	assert.Equal(t, b1.Digest(), b2.Digest())
	assert.Len(t, b1.Digest(), 64)

	fsys["metrics.json"] = &fstest.MapFile{Data: []byte(`{"m1": {"unit": "days"}}`)}
	b3, err := Load(fsys, testResources)
	require.NoError(t, err)
	assert.NotEqual(t, b1.Digest(), b3.Digest())
}

func TestBundle_MarshalJSON(t *testing.T) {
	b, err := Load(testFS(), testResources)
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"metrics":{"m1":{"unit":"percent"}},"rules":[{"rule_id":"r1"}]}`, string(data))
}
