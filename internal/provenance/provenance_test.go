package provenance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestDetectClean(t *testing.T) {
	dir := t.TempDir()
	hash := commitFile(t, dir)

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, hash[:7], info.Commit)
	assert.False(t, info.Dirty)
	assert.Equal(t, hash[:7], info.String())
}

func TestDetectFromSubdirectoryAndDirty(t *testing.T) {
	dir := t.TempDir()
	hash := commitFile(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	sub := filepath.Join(dir, "internal", "cli")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	desc, err := Describe(sub)
	require.NoError(t, err)
	assert.Equal(t, hash[:7]+" + local changes", desc)
}

func TestDetectWithoutRepository(t *testing.T) {
	desc, err := Describe(t.TempDir())
	require.Error(t, err)
	assert.Empty(t, desc)
	assert.Empty(t, Info{}.String())
}
