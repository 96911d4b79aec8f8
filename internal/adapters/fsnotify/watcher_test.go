package fsnotify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(dir, func(path string) {
		changed <- path
	}))

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsDocumentChange(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "standard_metrics.json")
	require.NoError(t, os.WriteFile(doc, []byte(`[]`), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(doc, []byte(`[{}]`), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for document change")
	assert.Equal(t, doc, path)
}

func TestWatcher_DetectsNewDocument(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	doc := filepath.Join(dir, "ontology_graph.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{}`), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for new document")
	assert.Equal(t, doc, path)
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "root_cause_factors.json")
	require.NoError(t, os.WriteFile(doc, []byte(`[]`), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.Remove(doc))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for removed document")
	assert.Equal(t, doc, path)
}

func TestWatcher_FiresAfterLastWrite(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "standard_metrics.json")
	require.NoError(t, os.WriteFile(doc, []byte(`[]`), 0644))

	w, err := NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	contents := make(chan string, 10)
	require.NoError(t, w.Watch(dir, func(path string) {
		data, _ := os.ReadFile(path)
		contents <- string(data)
	}))
	time.Sleep(50 * time.Millisecond)

	// Truncate, write half, pause, write the rest: the way editors save.
	f, err := os.OpenFile(doc, os.O_WRONLY|os.O_TRUNC, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`[{"metric_id":`)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.WriteString(`"M1"}]`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, ok := waitForCallback(contents, 2*time.Second)
	require.True(t, ok, "expected callback after the writes settle")
	assert.Equal(t, `[{"metric_id":"M1"}]`, got)

	_, extra := waitForCallback(contents, 200*time.Millisecond)
	assert.False(t, extra, "one burst of writes yields one callback")
}

func TestWatcher_NoCallbackAfterStop(t *testing.T) {
	dir := t.TempDir()
	w, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "standard_metrics.json"), []byte(`[]`), 0644))
	require.NoError(t, w.Stop())

	_, ok := waitForCallback(changed, 200*time.Millisecond)
	assert.False(t, ok, "pending debounce must not fire after Stop")
}

func TestWatcher_IgnoresNonDocuments(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.json.swp"), []byte("x"), 0644))

	_, ok := waitForCallback(changed, 300*time.Millisecond)
	assert.False(t, ok, "no callback expected for non-document files")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	require.NoError(t, w.Watch(t.TempDir(), func(string) {}))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.Error(t, w.Watch(t.TempDir(), func(string) {}), "watch after stop")
}

func TestWatcher_StopWithoutWatch(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestWatcher_SecondWatchRejected(t *testing.T) {
	w, _ := startWatcher(t, t.TempDir())
	assert.ErrorContains(t, w.Watch(t.TempDir(), func(string) {}), "already started")
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "absent"), func(string) {}))
}

func TestIsDocument(t *testing.T) {
	tests := map[string]bool{
		"/lib/standard_metrics.json":     true,
		"/lib/UPPER.JSON":                true,
		"/lib/.standard_metrics.json":    false,
		"/lib/standard_metrics.json.swp": false,
		"/lib/standard_metrics.json~":    false,
		"/lib/notes.txt":                 false,
		"/lib/lib.go":                    false,
	}
	for path, want := range tests {
		assert.Equal(t, want, isDocument(path), path)
	}
}
