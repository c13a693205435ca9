package outfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// okUntil reports no error for its first n Err calls, then Canceled.
type okUntil struct {
	context.Context
	n int
}

func (c *okUntil) Err() error {
	if c.n > 0 {
		c.n--
		return nil
	}
	return context.Canceled
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requester.rs")

	require.NoError(t, Write(path, []byte("one"), 0o644))
	require.NoError(t, Write(path, []byte("two"), 0o644))

	assert.Equal(t, "two", readFile(t, path))
	assert.Equal(t, []string{"requester.rs"}, listDir(t, dir))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), st.Mode().Perm())
}

func TestWriteMissingDir(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "nope", "x.rs"), []byte("x"), 0o644)
	require.Error(t, err)
}

func TestBatchCommit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("old a"), 0o644))

	var b Batch
	b.Add(filepath.Join(dir, "a.rs"), []byte("new a"), 0o644)
	b.Add(filepath.Join(dir, "b.rs"), []byte("new b"), 0o644)
	assert.Equal(t, 2, b.Len())

	require.NoError(t, b.Commit(context.Background()))
	assert.Equal(t, "new a", readFile(t, filepath.Join(dir, "a.rs")))
	assert.Equal(t, "new b", readFile(t, filepath.Join(dir, "b.rs")))
	assert.Equal(t, []string{"a.rs", "b.rs"}, listDir(t, dir))
}

func TestBatchCommitCancelledPartway(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("old a"), 0o644))

	var b Batch
	b.Add(filepath.Join(dir, "a.rs"), []byte("new a"), 0o644)
	b.Add(filepath.Join(dir, "b.rs"), []byte("new b"), 0o644)
	b.Add(filepath.Join(dir, "c.rs"), []byte("new c"), 0o644)

	err := b.Commit(&okUntil{Context: context.Background(), n: 2})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "old a", readFile(t, filepath.Join(dir, "a.rs")))
	assert.Equal(t, []string{"a.rs"}, listDir(t, dir))
}

func TestBatchCommitRollsBackFailedRename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("old a"), 0o644))

	calls := 0
	rename = func(from, to string) error {
		calls++
		if calls == 3 {
			return errors.New("disk full")
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	var b Batch
	b.Add(filepath.Join(dir, "a.rs"), []byte("new a"), 0o644)
	b.Add(filepath.Join(dir, "b.rs"), []byte("new b"), 0o644)
	b.Add(filepath.Join(dir, "c.rs"), []byte("new c"), 0o644)

	err := b.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename c.rs")
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, "old a", readFile(t, filepath.Join(dir, "a.rs")))
	assert.Equal(t, []string{"a.rs"}, listDir(t, dir))
}
