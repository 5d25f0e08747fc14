package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glimmer/internal/forest"
	"github.com/jward/glimmer/internal/source"
)

func setupForest(t *testing.T) *forest.Forest {
	t.Helper()
	f := forest.New()
	f.AddOrReplace(source.FileURI("/proj/src/Shapes.glim"), []byte(`module Shapes exposing (area, Shape(..))

type Shape
    = Circle Float
    | Rectangle Float Float

area shape =
    shape
`), true)
	return f
}

func TestResolve_ExplicitExposingBringsNamesIntoScope(t *testing.T) {
	f := setupForest(t)
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes exposing (area, Shape(..))

x =
    area
`), true)

	tc, _ := f.GetByURI(uri)
	resolved := Resolve(f, tc)

	var shapesImport *ResolvedImport
	for i := range resolved {
		if resolved[i].SourceModule == "Shapes" {
			shapesImport = &resolved[i]
		}
	}
	require.NotNil(t, shapesImport)
	assert.False(t, shapesImport.Unresolved)
	require.Contains(t, shapesImport.ExposedLocally, "area")
	require.Contains(t, shapesImport.ExposedLocally, "Circle")
	require.Contains(t, shapesImport.ExposedLocally, "Rectangle")
	assert.Equal(t, OriginalRef{SourceModule: "Shapes", OriginalName: "area"}, shapesImport.ExposedLocally["area"])
}

func TestResolve_UnexposedNameIsNotFabricated(t *testing.T) {
	f := forest.New()
	f.AddOrReplace(source.FileURI("/proj/src/Shapes.glim"), []byte(`module Shapes exposing (area)

helper x =
    x

area shape =
    shape
`), true)
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes exposing (helper)
`), true)

	tc, _ := f.GetByURI(uri)
	resolved := Resolve(f, tc)
	shapesImport := resolved[0]
	assert.NotContains(t, shapesImport.ExposedLocally, "helper")
}

func TestResolve_MissingModuleIsUnresolved(t *testing.T) {
	f := forest.New()
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Ghost
`), true)

	tc, _ := f.GetByURI(uri)
	resolved := Resolve(f, tc)
	require.Len(t, resolved, 2) // Ghost + prelude
	assert.True(t, resolved[0].Unresolved)
	assert.Equal(t, "Ghost", resolved[0].SourceModule)
}

func TestResolve_AliasIsRecorded(t *testing.T) {
	f := setupForest(t)
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes as S
`), true)

	tc, _ := f.GetByURI(uri)
	resolved := Resolve(f, tc)
	assert.Equal(t, "S", resolved[0].Alias)
}

func TestResolve_WildcardExposesOnlyTargetsOwnExports(t *testing.T) {
	f := setupForest(t)
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes exposing (..)
`), true)

	tc, _ := f.GetByURI(uri)
	resolved := Resolve(f, tc)
	assert.Contains(t, resolved[0].ExposedLocally, "area")
	assert.Contains(t, resolved[0].ExposedLocally, "Circle")
	assert.NotContains(t, resolved[0].ExposedLocally, "Main") // sanity: no accidental self-entry
}

func TestResolve_DefaultPreludeAlwaysPresent(t *testing.T) {
	f := forest.New()
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte("module Main exposing (..)\n\nx =\n    1\n"), true)

	tc, _ := f.GetByURI(uri)
	resolved := Resolve(f, tc)
	require.Len(t, resolved, 1)
	assert.Equal(t, preludeModule, resolved[0].SourceModule)
	assert.Contains(t, resolved[0].ExposedLocally, "List")
	assert.Contains(t, resolved[0].ExposedLocally, "True")
}

func TestResolver_CachesUntilGenerationChanges(t *testing.T) {
	f := setupForest(t)
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes exposing (area)
`), true)

	r := NewResolver(f)
	first := r.Resolve(uri)
	second := r.Resolve(uri)
	assert.Same(t, &first[0], &second[0])

	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes exposing (area)

y = 1
`), true)
	third := r.Resolve(uri)
	require.NotNil(t, third)
	assert.NotContains(t, third[0].ExposedLocally, "nonexistent")
}

func TestResolver_InvalidateImportersOf(t *testing.T) {
	f := setupForest(t)
	uri := source.FileURI("/proj/src/Main.glim")
	f.AddOrReplace(uri, []byte(`module Main exposing (..)

import Shapes exposing (area)
`), true)

	r := NewResolver(f)
	r.Resolve(uri)
	require.Contains(t, r.cache, uri)

	r.InvalidateImportersOf("Shapes")
	assert.NotContains(t, r.cache, uri)
}
