package xref

import (
	"context"
	"errors"

	"github.com/jward/glimmer/internal/forest"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// ErrCancelled is returned by FindReferences when ctx is done before the
// scan over the forest completes (spec §5 "a query carries a cancellation
// token checked at least between files").
var ErrCancelled = errors.New("xref: cancelled")

// FindReferences traverses every writeable tree and, for each occurrence
// of def's name, re-runs the classification the reverse direction: an
// occurrence counts if resolving it lands back on def's exact node (spec
// §4.8 "find all references"). If def's defining module currently exposes
// it, FindReferences additionally reports def's own re-exposure in its
// defining module's exposing clause and every importer's exposing-list
// entry naming it, since neither is caught by the generic
// expression-occurrence scan. An unexposed symbol has no references
// outside its own body scan: exposing/import-clause entries are skipped
// entirely (spec §4.8 "An unexposed symbol has no external references;
// cross-file search short-circuits"). ctx is checked between files; on
// cancellation the partial results so far are discarded and ErrCancelled
// is returned, per spec §7's "Cancelled" error kind.
func (r *Resolver) FindReferences(ctx context.Context, def *DefinitionNode) ([]Reference, error) {
	name := definitionName(def)
	if name == "" {
		return nil, nil
	}
	definingTC, ok := r.forest.GetByURI(def.URI)
	if !ok {
		return nil, nil
	}
	definingModule := definingTC.Index.ModuleName
	exposed := definitionExposed(definingTC, def)

	var out []Reference
	for _, tc := range r.forest.AllWriteable() {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		out = append(out, r.referencesIn(tc, def, name, definingModule, exposed)...)
	}
	return out, nil
}

// definitionExposed reports whether def's defining module's current
// exposing set grants external visibility to the top-level binding def
// points at. A def that isn't a top-level binding at all (a local
// let-binding, parameter, or case pattern) has no external visibility by
// construction.
func definitionExposed(definingTC *forest.TreeContainer, def *DefinitionNode) bool {
	for _, b := range definingTC.Index.Bindings {
		if b.DefiningNode == def.Node {
			return isExposed(definingTC.Index, b)
		}
	}
	return false
}

func (r *Resolver) referencesIn(tc *forest.TreeContainer, def *DefinitionNode, name, definingModule string, exposed bool) []Reference {
	var out []Reference

	tc.Tree.Root.Walk(func(n *syntax.Node) {
		switch n.Kind {
		case syntax.KindLowerIdent, syntax.KindUpperIdent, syntax.KindOperatorRef:
			if n.Text != name {
				return
			}
			if n.Parent != nil && n.Parent.Kind == syntax.KindQualifiedValueReference {
				return // the QualifiedValueReference case below handles it
			}
			got, ok := r.classify(tc, n)
			if !ok || got.URI != def.URI || got.Node != def.Node {
				return
			}
			kind := ReferenceKindUse
			if isDefiningNameNode(n, def) {
				kind = ReferenceKindDefinition
			}
			out = append(out, Reference{URI: tc.URI, Node: n, Kind: kind})

		case syntax.KindQualifiedValueReference:
			if len(n.Children) == 0 {
				return
			}
			last := n.Children[len(n.Children)-1]
			if last.Text != name {
				return
			}
			got, ok := r.classifyQualified(tc, n)
			if !ok || got.URI != def.URI || got.Node != def.Node {
				return
			}
			out = append(out, Reference{URI: tc.URI, Node: n, Kind: ReferenceKindUse})
		}
	})

	if !exposed {
		return out
	}

	if tc.URI == def.URI {
		if moduleDecl := tc.Tree.Root.ChildOfKind(syntax.KindModuleDecl); moduleDecl != nil {
			if list := moduleDecl.ChildOfKind(syntax.KindExposingList); list != nil {
				out = append(out, exposingEntriesNaming(tc.URI, list, name, ReferenceKindExposingClauseEntry)...)
			}
		}
	}

	for _, decl := range tc.Tree.Root.Children {
		if decl.Kind != syntax.KindImportClause {
			continue
		}
		moduleNameNode := decl.ChildOfKind(syntax.KindModuleName)
		if moduleNameNode == nil || moduleNameNode.Text != definingModule {
			continue
		}
		if list := decl.ChildOfKind(syntax.KindExposingList); list != nil {
			out = append(out, exposingEntriesNaming(tc.URI, list, name, ReferenceKindImportClauseEntry)...)
		}
	}

	return out
}

func exposingEntriesNaming(uri source.FileURI, list *syntax.Node, name string, kind ReferenceKind) []Reference {
	var out []Reference
	for _, item := range list.Children {
		switch item.Kind {
		case syntax.KindExposedValue, syntax.KindExposedType:
			if item.Text == name {
				out = append(out, Reference{uri, item, kind})
			}
		case syntax.KindExposedOperator:
			if op := item.ChildOfKind(syntax.KindOperatorRef); op != nil && op.Text == name {
				out = append(out, Reference{uri, item, kind})
			}
		case syntax.KindExposedTypeAll:
			if upper := item.ChildOfKind(syntax.KindUpperIdent); upper != nil && upper.Text == name {
				out = append(out, Reference{uri, item, kind})
			}
		case syntax.KindExposedTypeSome:
			for _, upper := range item.ChildrenOfKind(syntax.KindUpperIdent) {
				if upper.Text == name {
					out = append(out, Reference{uri, item, kind})
					break
				}
			}
		}
	}
	return out
}

// isDefiningNameNode reports whether n is the specific name token inside
// def.Node that makes it a definition, as opposed to some other child
// that happens to share its text (e.g. a single-token recursive body
// `foo = foo`, where the body reference must not be mistaken for the
// binding's own name).
func isDefiningNameNode(n *syntax.Node, def *DefinitionNode) bool {
	switch def.NodeType {
	case NodeTypeValue, NodeTypeLetBinding, NodeTypePort:
		return len(def.Node.Children) > 0 && def.Node.Children[0] == n
	case NodeTypeTypeAlias, NodeTypeUnionType, NodeTypeUnionConstructor:
		return def.Node.ChildOfKind(syntax.KindUpperIdent) == n
	case NodeTypeOperator:
		return def.Node.ChildOfKind(syntax.KindOperatorRef) == n
	case NodeTypeFunctionParameter, NodeTypeCasePattern:
		return def.Node == n
	default:
		return false
	}
}

func definitionName(def *DefinitionNode) string {
	switch def.NodeType {
	case NodeTypeFunctionParameter, NodeTypeCasePattern:
		return def.Node.Text
	case NodeTypeLetBinding, NodeTypeValue:
		if len(def.Node.Children) > 0 {
			return def.Node.Children[0].Text
		}
	case NodeTypeTypeAlias, NodeTypeUnionType, NodeTypeUnionConstructor:
		if n := def.Node.ChildOfKind(syntax.KindUpperIdent); n != nil {
			return n.Text
		}
	case NodeTypePort:
		if n := def.Node.ChildOfKind(syntax.KindLowerIdent); n != nil {
			return n.Text
		}
	case NodeTypeOperator:
		if n := def.Node.ChildOfKind(syntax.KindOperatorRef); n != nil {
			return n.Text
		}
	}
	return ""
}
