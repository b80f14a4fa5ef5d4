package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackends(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFile(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
	}
}

func TestStorePutGetDelete(t *testing.T) {
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "record")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, "record", []byte(`{"a":1}`)))
			data, ok, err := s.Get(ctx, "record")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `{"a":1}`, string(data))

			require.NoError(t, s.Delete(ctx, "record"))
			_, ok, err = s.Get(ctx, "record")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Delete(ctx, "record"))
		})
	}
}

func TestStoreCompareAndSwap(t *testing.T) {
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// nil expectation succeeds only while the record is absent.
			ok, err := s.CompareAndSwap(ctx, "cas", nil, []byte("v1"))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.CompareAndSwap(ctx, "cas", nil, []byte("v2"))
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = s.CompareAndSwap(ctx, "cas", []byte("stale"), []byte("v2"))
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = s.CompareAndSwap(ctx, "cas", []byte("v1"), []byte("v2"))
			require.NoError(t, err)
			assert.True(t, ok)

			data, _, err := s.Get(ctx, "cas")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(data))
		})
	}
}

func TestLoadJSONCorruptRecordStartsEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Put(ctx, "record", []byte("{not json")))

	var v struct{ A int }
	ok, err := LoadJSON(ctx, s, "record", &v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v.A)
}

func TestFileReplaceLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Put(ctx, "queue", []byte("one")))
	require.NoError(t, f.Put(ctx, "queue", []byte("two")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "queue.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "queue.json"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestFileKeySanitized(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Put(ctx, "safemode/flag", []byte("x")))
	data, ok, err := f.Get(ctx, "safemode/flag")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", string(data))
}
