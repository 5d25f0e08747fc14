// Package imports implements the import resolver (C7): for each tree, it
// turns the import list into a binding environment mapping local names to
// (sourceModule, originalName) (spec §4.7). Resolution is a pure view over
// the forest; Resolver adds the generation-keyed cache spec §9's design
// note calls for, so re-resolving only happens when the importer or an
// imported module actually changed.
package imports

import (
	"sync"

	"github.com/jward/glimmer/internal/forest"
	"github.com/jward/glimmer/internal/modindex"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// OriginalRef names where an exposed local binding actually comes from.
type OriginalRef struct {
	SourceModule string
	OriginalName string
}

// ResolvedImport is one import statement's resolved effect on its file's
// binding environment (spec §3).
type ResolvedImport struct {
	SourceModule   string
	Alias          string
	ExposedLocally map[string]OriginalRef
	Unresolved     bool
}

// Resolve computes tc's resolved imports against the current state of f.
// It never fabricates a binding for a name the target module's own
// exposing set does not grant (spec §4.7 invariant): a listed name the
// target does not actually expose is simply omitted from ExposedLocally.
func Resolve(f *forest.Forest, tc *forest.TreeContainer) []ResolvedImport {
	var out []ResolvedImport
	for _, decl := range tc.Tree.Root.Children {
		if decl.Kind != syntax.KindImportClause {
			continue
		}
		out = append(out, resolveOne(f, decl))
	}
	out = append(out, defaultImport())
	return out
}

func resolveOne(f *forest.Forest, importClause *syntax.Node) ResolvedImport {
	nameNode := importClause.ChildOfKind(syntax.KindModuleName)
	if nameNode == nil {
		return ResolvedImport{Unresolved: true}
	}
	sourceModule := nameNode.Text

	var alias string
	if aliasNode := importClause.ChildOfKind(syntax.KindImportAlias); aliasNode != nil {
		alias = aliasNode.Text
	}

	target, ok := f.GetByModule(sourceModule)
	if !ok {
		return ResolvedImport{SourceModule: sourceModule, Alias: alias, Unresolved: true}
	}

	exposed := map[string]OriginalRef{}
	if list := importClause.ChildOfKind(syntax.KindExposingList); list != nil {
		applyExposingList(list, target.Index, sourceModule, exposed)
	}

	return ResolvedImport{SourceModule: sourceModule, Alias: alias, ExposedLocally: exposed}
}

func applyExposingList(list *syntax.Node, target *modindex.Index, sourceModule string, exposed map[string]OriginalRef) {
	for _, item := range list.Children {
		switch item.Kind {
		case syntax.KindExposingAll:
			for _, b := range target.Bindings {
				if exposedExternally(target, b) {
					exposed[b.Name] = OriginalRef{SourceModule: sourceModule, OriginalName: b.Name}
				}
			}

		case syntax.KindExposedValue:
			if target.Exposing.ExposesValue(item.Text) {
				exposed[item.Text] = OriginalRef{SourceModule: sourceModule, OriginalName: item.Text}
			}

		case syntax.KindExposedType:
			if target.Exposing.ExposesType(item.Text) {
				exposed[item.Text] = OriginalRef{SourceModule: sourceModule, OriginalName: item.Text}
			}

		case syntax.KindExposedTypeAll:
			upper := item.ChildOfKind(syntax.KindUpperIdent)
			if upper == nil {
				continue
			}
			typeName := upper.Text
			if target.Exposing.ExposesType(typeName) {
				exposed[typeName] = OriginalRef{SourceModule: sourceModule, OriginalName: typeName}
			}
			for _, b := range target.Bindings {
				if b.Kind == modindex.KindUnionConstructor && b.ParentUnionType != nil {
					if parentName := b.ParentUnionType.ChildOfKind(syntax.KindUpperIdent); parentName != nil && parentName.Text == typeName {
						if target.Exposing.ExposesConstructor(typeName, b.Name) {
							exposed[b.Name] = OriginalRef{SourceModule: sourceModule, OriginalName: b.Name}
						}
					}
				}
			}

		case syntax.KindExposedTypeSome:
			upperChildren := item.ChildrenOfKind(syntax.KindUpperIdent)
			if len(upperChildren) == 0 {
				continue
			}
			typeName := upperChildren[0].Text
			if target.Exposing.ExposesType(typeName) {
				exposed[typeName] = OriginalRef{SourceModule: sourceModule, OriginalName: typeName}
			}
			for _, ctor := range upperChildren[1:] {
				if target.Exposing.ExposesConstructor(typeName, ctor.Text) {
					exposed[ctor.Text] = OriginalRef{SourceModule: sourceModule, OriginalName: ctor.Text}
				}
			}
		}
	}
}

// exposedExternally reports whether binding b is visible to an importer's
// wildcard ("..") exposing clause, i.e. b.Name is actually in target's own
// exposing set.
func exposedExternally(target *modindex.Index, b modindex.TopLevelBinding) bool {
	switch b.Kind {
	case modindex.KindUnionType:
		return target.Exposing.ExposesType(b.Name)
	case modindex.KindUnionConstructor:
		if b.ParentUnionType == nil {
			return false
		}
		parentName := b.ParentUnionType.ChildOfKind(syntax.KindUpperIdent)
		return parentName != nil && target.Exposing.ExposesConstructor(parentName.Text, b.Name)
	default:
		return target.Exposing.ExposesValue(b.Name)
	}
}

type cacheEntry struct {
	generation uint64
	imports    []ResolvedImport
}

// Resolver memoizes Resolve per file, keyed by the TreeContainer's
// generation number, so an unrelated edit elsewhere in the forest doesn't
// force every importer to re-resolve.
type Resolver struct {
	forest *forest.Forest
	mu     sync.Mutex
	cache  map[source.FileURI]cacheEntry
}

// NewResolver builds a Resolver backed by f.
func NewResolver(f *forest.Forest) *Resolver {
	return &Resolver{forest: f, cache: map[source.FileURI]cacheEntry{}}
}

// Resolve returns uri's resolved imports, recomputing only if uri's
// TreeContainer has reparsed since the last call.
func (r *Resolver) Resolve(uri source.FileURI) []ResolvedImport {
	tc, ok := r.forest.GetByURI(uri)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.cache[uri]; ok && entry.generation == tc.Generation {
		return entry.imports
	}
	result := Resolve(r.forest, tc)
	r.cache[uri] = cacheEntry{generation: tc.Generation, imports: result}
	return result
}

// InvalidateImportersOf drops the cached resolution of every file that
// imports moduleName, so the next Resolve call recomputes it against the
// module's current exposing set (spec §9's generation-keyed cache note,
// applied on a module-level change rather than a global flush).
func (r *Resolver) InvalidateImportersOf(moduleName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uri, entry := range r.cache {
		for _, imp := range entry.imports {
			if imp.SourceModule == moduleName {
				delete(r.cache, uri)
				break
			}
		}
	}
}
