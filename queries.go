package glimmer

import (
	"context"
	"fmt"

	"github.com/jward/glimmer/internal/forest"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// GetForest returns h's live forest. The returned *forest.Forest stays
// live across further ApplyFileChange calls — callers must not cache
// results derived from it across a mutation without re-fetching.
func GetForest(h WorkspaceHandle) (*forest.Forest, bool) {
	w, ok := workspaceByHandle(h)
	if !ok {
		return nil, false
	}
	return w.forest, true
}

// GetTree returns uri's current parsed tree in h's forest.
func GetTree(h WorkspaceHandle, uri source.FileURI) (*syntax.Tree, bool) {
	w, ok := workspaceByHandle(h)
	if !ok {
		return nil, false
	}
	tc, ok := w.forest.GetByURI(uri)
	if !ok {
		return nil, false
	}
	return tc.Tree, true
}

// FindDefinition resolves the go-to-definition query at pos in uri (spec
// §4.8 steps 1-2), delegating to the xref resolver built over h's forest
// and import resolver.
func FindDefinition(h WorkspaceHandle, uri source.FileURI, pos syntax.Position) (*DefinitionNode, bool) {
	w, ok := workspaceByHandle(h)
	if !ok {
		return nil, false
	}
	return w.xref.FindDefinition(uri, pos)
}

// FindReferences resolves the find-all-references query for def (spec
// §4.8 step 3). ctx is checked between files; a cancellation mid-scan
// returns ErrCancelled wrapped as an *Error with ErrKindCancelled, never a
// partial result (spec §7 "Cancelled").
func FindReferences(ctx context.Context, h WorkspaceHandle, def DefinitionNode) ([]Reference, error) {
	w, ok := workspaceByHandle(h)
	if !ok {
		return nil, wrapErr(ErrKindProjectMisconfigured, fmt.Errorf("unknown workspace handle"))
	}
	refs, err := w.xref.FindReferences(ctx, &def)
	if err != nil {
		return nil, wrapErr(ErrKindCancelled, ErrCancelled)
	}
	return refs, nil
}

// GetImports returns uri's resolved imports (spec §4.7), including the
// always-present default prelude entry.
func GetImports(h WorkspaceHandle, uri source.FileURI) ([]ResolvedImport, error) {
	w, ok := workspaceByHandle(h)
	if !ok {
		return nil, wrapErr(ErrKindProjectMisconfigured, fmt.Errorf("unknown workspace handle"))
	}
	if _, ok := w.forest.GetByURI(uri); !ok {
		return nil, wrapErr(ErrKindUnknownPackage, fmt.Errorf("no such file in workspace: %s", uri))
	}
	return w.imports.Resolve(uri), nil
}
