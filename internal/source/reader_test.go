package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glimmer/internal/manifest"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewReader_MissingRoot(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, manifest.ErrProjectMisconfigured)
}

func TestEnumerateProject_MatchesGlobAndSkipsIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/Main.glim", "module Main exposing (..)\n")
	writeFile(t, root, "src/nested/Util.glim", "module Util exposing (..)\n")
	writeFile(t, root, "README.md", "not a source file")
	writeFile(t, root, "src/generated/Skip.glim", "module Skip exposing (..)\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".glimmerignore"), []byte("src/generated/\n"), 0o644))

	r, err := NewReader(root, []string{"src/**/*.glim"})
	require.NoError(t, err)

	events, err := r.EnumerateProject()
	require.NoError(t, err)

	var uris []string
	for _, ev := range events {
		uris = append(uris, string(ev.URI))
		assert.True(t, ev.Writeable)
	}
	assert.Len(t, events, 2)
	for _, ev := range events {
		assert.Contains(t, string(ev.URI), ".glim")
	}
}

func TestEnumerateDependency_IsReadOnly(t *testing.T) {
	root := t.TempDir()
	depRoot := t.TempDir()
	writeFile(t, depRoot, "src/Dep.glim", "module Dep exposing (..)\n")

	r, err := NewReader(root, []string{"src/**/*.glim"})
	require.NoError(t, err)

	events, err := r.EnumerateDependency(depRoot, []string{"src/**/*.glim"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Writeable)
}

func TestEnumerateDependency_MissingRoot(t *testing.T) {
	root := t.TempDir()
	r, err := NewReader(root, []string{"src/**/*.glim"})
	require.NoError(t, err)

	_, err = r.EnumerateDependency(filepath.Join(root, "nope"), []string{"src/**/*.glim"})
	assert.ErrorIs(t, err, manifest.ErrProjectMisconfigured)
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("src/Main.glim", []string{"src/**/*.glim"}))
	assert.False(t, matchesAny("src/Main.txt", []string{"src/**/*.glim"}))
}
