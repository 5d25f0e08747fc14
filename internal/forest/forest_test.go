package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glimmer/internal/source"
)

func TestAddOrReplace_BijectiveMapping(t *testing.T) {
	f := New()
	uri := source.FileURI("/proj/src/Shapes.glim")
	tc := f.AddOrReplace(uri, []byte("module Shapes exposing (..)\n"), true)

	byURI, ok := f.GetByURI(uri)
	require.True(t, ok)
	assert.Same(t, tc, byURI)

	byModule, ok := f.GetByModule("Shapes")
	require.True(t, ok)
	assert.Same(t, tc, byModule)
}

func TestAddOrReplace_ReparseDropsStaleModuleMapping(t *testing.T) {
	f := New()
	uri := source.FileURI("/proj/src/A.glim")
	f.AddOrReplace(uri, []byte("module Old exposing (..)\n"), true)

	f.AddOrReplace(uri, []byte("module New exposing (..)\n"), true)

	_, ok := f.GetByModule("Old")
	assert.False(t, ok)
	_, ok = f.GetByModule("New")
	assert.True(t, ok)
}

func TestRemove_DeletesBothMappings(t *testing.T) {
	f := New()
	uri := source.FileURI("/proj/src/A.glim")
	f.AddOrReplace(uri, []byte("module A exposing (..)\n"), true)

	f.Remove(uri)

	_, ok := f.GetByURI(uri)
	assert.False(t, ok)
	_, ok = f.GetByModule("A")
	assert.False(t, ok)
}

func TestAllWriteable_ExcludesReadOnlyDependencyTrees(t *testing.T) {
	f := New()
	f.AddOrReplace(source.FileURI("/proj/src/A.glim"), []byte("module A exposing (..)\n"), true)
	f.AddOrReplace(source.FileURI("/deps/dep/Lib.glim"), []byte("module Lib exposing (..)\n"), false)

	writeable := f.AllWriteable()
	require.Len(t, writeable, 1)
	assert.Equal(t, source.FileURI("/proj/src/A.glim"), writeable[0].URI)
	assert.Len(t, f.All(), 2)
}

func TestAddOrReplace_ReadOnlyDependencyTreeIsIndexedByModule(t *testing.T) {
	f := New()
	tc := f.AddOrReplace(source.FileURI("/deps/dep/Lib.glim"), []byte("module Lib exposing (..)\n"), false)

	byModule, ok := f.GetByModule("Lib")
	require.True(t, ok)
	assert.Same(t, tc, byModule)
}

func TestAddOrReplace_WriteableModuleNameWinsOverReadOnlyCollision(t *testing.T) {
	f := New()
	writeable := f.AddOrReplace(source.FileURI("/proj/src/Shapes.glim"), []byte("module Shapes exposing (..)\n"), true)
	f.AddOrReplace(source.FileURI("/deps/dep/Shapes.glim"), []byte("module Shapes exposing (..)\n"), false)

	byModule, ok := f.GetByModule("Shapes")
	require.True(t, ok)
	assert.Same(t, writeable, byModule)
}

func TestAddOrReplace_ReadOnlyModuleNameWinsOverEarlierReadOnly(t *testing.T) {
	f := New()
	f.AddOrReplace(source.FileURI("/deps/dep-a/Shapes.glim"), []byte("module Shapes exposing (..)\n"), false)
	second := f.AddOrReplace(source.FileURI("/deps/dep-b/Shapes.glim"), []byte("module Shapes exposing (..)\n"), false)

	byModule, ok := f.GetByModule("Shapes")
	require.True(t, ok)
	assert.Same(t, second, byModule)
}

func TestRemove_ReadOnlyTreeDropsModuleMapping(t *testing.T) {
	f := New()
	uri := source.FileURI("/deps/dep/Lib.glim")
	f.AddOrReplace(uri, []byte("module Lib exposing (..)\n"), false)

	f.Remove(uri)

	_, ok := f.GetByModule("Lib")
	assert.False(t, ok)
}

func TestAddOrReplace_GenerationIncreasesOnReparse(t *testing.T) {
	f := New()
	uri := source.FileURI("/proj/src/A.glim")
	first := f.AddOrReplace(uri, []byte("module A exposing (..)\n"), true)
	second := f.AddOrReplace(uri, []byte("module A exposing (..)\n\nx =\n    1\n"), true)

	assert.Less(t, first.Generation, second.Generation)
}
