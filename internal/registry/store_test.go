package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glimmer/internal/manifest"
	"github.com/jward/glimmer/internal/semver"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGet_UnknownPackage(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("author/missing")
	assert.ErrorIs(t, err, ErrUnknownPackage)
}

func TestPutRelease_ThenGet(t *testing.T) {
	s := newTestStore(t)
	c, err := manifest.ParseConstraint("1.0.0 <= v < 2.0.0")
	require.NoError(t, err)

	err = s.PutRelease("author/widgets", Release{
		Version:      semver.MustParse("1.5.0"),
		Dependencies: map[string]semver.Constraint{"author/base": c},
	})
	require.NoError(t, err)

	releases, err := s.Get("author/widgets")
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, semver.MustParse("1.5.0"), releases[0].Version)
	require.Contains(t, releases[0].Dependencies, "author/base")
	assert.Equal(t, c, releases[0].Dependencies["author/base"])
}

func TestPutRelease_Idempotent(t *testing.T) {
	s := newTestStore(t)
	rel := Release{Version: semver.MustParse("1.0.0"), Dependencies: map[string]semver.Constraint{}}
	require.NoError(t, s.PutRelease("a/b", rel))
	require.NoError(t, s.PutRelease("a/b", rel))

	releases, err := s.Get("a/b")
	require.NoError(t, err)
	assert.Len(t, releases, 1)
}

func TestLoadMetadataDir(t *testing.T) {
	dir := t.TempDir()
	content := `
releases:
  - version: "1.5.0"
    dependencies:
      author/base: "1.0.0 <= v < 2.0.0"
  - version: "1.4.0"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "author-widgets.yaml"), []byte(content), 0o644))

	s := newTestStore(t)
	require.NoError(t, LoadMetadataDir(s, dir))

	releases, err := s.Get("author/widgets")
	require.NoError(t, err)
	assert.Len(t, releases, 2)
}

func TestPackageNameFromFilename(t *testing.T) {
	assert.Equal(t, "author/name", packageNameFromFilename("author-name.yaml"))
}
