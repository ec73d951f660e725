package adapter

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "taptree.dev/pkg/taptree/internal/model"
)

func TestLocalSourceFSAdapter_Walk(t *testing.T) {
	t.Run("non recursive skips nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter(nil)

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "a.tap"), "ok\n")
		nestedDir := filepath.Join(root, "nested")
		writeTestFile(t, filepath.Join(nestedDir, "b.tap"), "ok\n")

		visited := walk(t, adapter, root, false)

		assert.Contains(t, visited, filepath.Join(root, "a.tap"))
		assert.NotContains(t, visited, nestedDir)
		assert.NotContains(t, visited, filepath.Join(nestedDir, "b.tap"))
	})

	t.Run("recursive visits nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter(nil)

		root := t.TempDir()
		child := filepath.Join(root, "nested", "b.tap")
		writeTestFile(t, child, "ok\n")
		writeTestFile(t, filepath.Join(root, "node_modules", "dep.tap"), "ok\n")

		visited := walk(t, adapter, root, true)

		assert.Contains(t, visited, child)
		assert.NotContains(t, visited, filepath.Join(root, "node_modules", "dep.tap"))
	})
}

func TestLocalSourceFSAdapter_Expand(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "b.tap"), "ok\n")
	writeTestFile(t, filepath.Join(root, "a.tap"), "ok\n")
	writeTestFile(t, filepath.Join(root, "notes.txt"), "not tap\n")
	writeTestFile(t, filepath.Join(root, "sub", "c.tap"), "ok\n")

	adapter := NewLocalSourceFSAdapter(nil)

	t.Run("directory", func(t *testing.T) {
		got, err := adapter.Expand([]m.Path{m.Path(root)})
		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(filepath.Join(root, "a.tap")), m.Path(filepath.Join(root, "b.tap"))}, got)
	})

	t.Run("recursive pattern", func(t *testing.T) {
		got, err := adapter.Expand([]m.Path{m.Path(root + "/...")})
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Contains(t, got, m.Path(filepath.Join(root, "sub", "c.tap")))
	})

	t.Run("file and stdin pass through", func(t *testing.T) {
		file := m.Path(filepath.Join(root, "notes.txt"))

		got, err := adapter.Expand([]m.Path{m.Stdin, file})
		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Stdin, file}, got)
	})

	t.Run("no paths", func(t *testing.T) {
		_, err := adapter.Expand(nil)
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("directory without streams", func(t *testing.T) {
		empty := t.TempDir()

		_, err := adapter.Expand([]m.Path{m.Path(empty)})
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := adapter.Expand([]m.Path{m.Path(filepath.Join(root, "missing"))})
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestLocalSourceFSAdapter_Open(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.tap")
	writeTestFile(t, path, "TAP version 13\n")

	t.Run("file", func(t *testing.T) {
		rc, err := NewLocalSourceFSAdapter(nil).Open(m.Path(path))
		require.NoError(t, err)

		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "TAP version 13\n", string(data))
	})

	t.Run("stdin", func(t *testing.T) {
		rc, err := NewLocalSourceFSAdapter(strings.NewReader("ok 1\n")).Open(m.Stdin)
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "ok 1\n", string(data))
	})

	t.Run("stdin unavailable", func(t *testing.T) {
		_, err := NewLocalSourceFSAdapter(nil).Open(m.Stdin)
		assert.ErrorIs(t, err, ErrNoInput)
	})
}

func TestLocalSourceFSAdapter_ReadFileAndInfo(t *testing.T) {
	adapter := NewLocalSourceFSAdapter(nil)

	path := filepath.Join(t.TempDir(), "src.js")
	writeTestFile(t, path, "one\ntwo\n")

	data, err := adapter.ReadFile(m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))

	info, err := adapter.FileInfo(m.Path(path))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.EqualValues(t, 8, info.Size())
}

func walk(t *testing.T, adapter *LocalSourceFSAdapter, root string, recursive bool) []string {
	t.Helper()

	var visited []string

	err := adapter.Walk(m.Path(root), recursive, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		visited = append(visited, path)

		return nil
	})
	require.NoError(t, err)

	return visited
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
