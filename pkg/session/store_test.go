package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewStore("")
		assert.Error(t, err)
	})

	t.Run("creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "auth.json")
		s, err := NewStore(path)
		require.NoError(t, err)
		assert.Equal(t, path, s.Path())

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestStoreLifecycle(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)

	assert.False(t, s.Exists())
	_, err = s.Read()
	assert.Error(t, err)

	require.NoError(t, s.Write([]byte(`{"cookies":[]}`)))
	assert.True(t, s.Exists())

	data, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"cookies":[]}`, string(data))

	require.NoError(t, s.Write([]byte(`{"cookies":[{"name":"PHPSESSID"}]}`)))
	data, err = s.Read()
	require.NoError(t, err)
	assert.Contains(t, string(data), "PHPSESSID")

	_, err = s.ModTime()
	assert.NoError(t, err)

	require.NoError(t, s.Remove())
	assert.False(t, s.Exists())
	assert.NoError(t, s.Remove(), "removing a missing record is fine")
}

func TestStoreDirectoryIsNotARecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	require.NoError(t, os.Mkdir(path, 0700))

	s, err := NewStore(path)
	require.NoError(t, err)
	assert.False(t, s.Exists())
}

func TestStoreConcurrentWritesLeaveOneCompleteRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "auth.json"))
	require.NoError(t, err)

	payloads := []string{`{"writer":"a"}`, `{"writer":"b"}`, `{"writer":"c"}`, `{"writer":"d"}`}

	var wg sync.WaitGroup
	for _, p := range payloads {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			assert.NoError(t, s.Write([]byte(p)))
		}(p)
	}
	wg.Wait()

	data, err := s.Read()
	require.NoError(t, err)
	assert.Contains(t, payloads, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
