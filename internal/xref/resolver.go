package xref

import (
	"strings"

	"github.com/jward/glimmer/internal/forest"
	"github.com/jward/glimmer/internal/imports"
	"github.com/jward/glimmer/internal/modindex"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// Resolver answers go-to-definition and find-all-references queries over a
// forest, using imports to cross files. Both operations are pure views:
// neither caches, since a definition query depends on a cursor position as
// well as tree generation, and a references query has to revisit every
// writeable tree regardless (spec §4.8).
type Resolver struct {
	forest  *forest.Forest
	imports *imports.Resolver
}

// NewResolver builds a Resolver backed by f and imp.
func NewResolver(f *forest.Forest, imp *imports.Resolver) *Resolver {
	return &Resolver{forest: f, imports: imp}
}

// FindDefinition locates the smallest named node covering pos in uri's
// tree and classifies it, returning the DefinitionNode it resolves to
// (spec §4.8 steps 1-2). ok is false if uri is unknown or no classification
// applies (a keyword, a literal, a wildcard parameter, and so on).
func (r *Resolver) FindDefinition(uri source.FileURI, pos syntax.Position) (*DefinitionNode, bool) {
	tc, ok := r.forest.GetByURI(uri)
	if !ok {
		return nil, false
	}
	offset := tc.Tree.OffsetAt(pos)
	node := tc.Tree.Root.SmallestNamedDescendant(offset)
	if node == nil {
		return nil, false
	}
	return r.classify(tc, node)
}

func (r *Resolver) classify(tc *forest.TreeContainer, node *syntax.Node) (*DefinitionNode, bool) {
	if node.Parent != nil && node.Parent.Kind == syntax.KindQualifiedValueReference {
		qvr := node.Parent
		last := qvr.Children[len(qvr.Children)-1]
		if node != last {
			return nil, false // clicked the module qualifier, not the referenced name
		}
		return r.classifyQualified(tc, qvr)
	}

	switch node.Kind {
	case syntax.KindFunctionParameter:
		if !isBindableName(node.Text) {
			return nil, false
		}
		return &DefinitionNode{tc.URI, node, NodeTypeFunctionParameter}, true

	case syntax.KindWildcardParameter:
		return nil, false

	case syntax.KindCasePattern:
		if len(node.Children) > 0 || !isBindableName(node.Text) {
			return nil, false
		}
		return &DefinitionNode{tc.URI, node, NodeTypeCasePattern}, true

	case syntax.KindUpperIdent:
		return r.classifyUpper(tc, node)

	case syntax.KindLowerIdent:
		return r.classifyLower(tc, node)

	case syntax.KindOperatorRef:
		return r.classifyOperator(tc, node)

	case syntax.KindQualifiedValueReference:
		return r.classifyQualified(tc, node)

	default:
		return nil, false
	}
}

// isBindableName excludes the wildcard "_" and literal pattern text (ints,
// quoted strings, and the paren-wrapped destructuring patterns the parser
// keeps as opaque spans) from being treated as a name with a referenceable
// binding occurrence.
func isBindableName(text string) bool {
	if text == "" || text == "_" {
		return false
	}
	r := text[0]
	return r >= 'a' && r <= 'z'
}

func (r *Resolver) classifyLower(tc *forest.TreeContainer, node *syntax.Node) (*DefinitionNode, bool) {
	name := node.Text

	if p := node.Parent; p != nil && len(p.Children) > 0 && p.Children[0] == node {
		switch p.Kind {
		case syntax.KindValueDecl:
			return &DefinitionNode{tc.URI, p, NodeTypeValue}, true
		case syntax.KindLetBinding:
			return &DefinitionNode{tc.URI, p, NodeTypeLetBinding}, true
		case syntax.KindPort:
			return &DefinitionNode{tc.URI, p, NodeTypePort}, true
		}
	}

	if def, ok := resolveLowerInScope(tc, node, name); ok {
		return def, true
	}
	if b, ok := pickBinding(tc.Index.ByName(name), modindex.KindValue, modindex.KindPort, modindex.KindOperator); ok {
		return &DefinitionNode{tc.URI, b.DefiningNode, mapBindingKind(b.Kind)}, true
	}
	return r.resolveViaImports(tc, name, modindex.KindValue, modindex.KindPort, modindex.KindOperator)
}

// resolveLowerInScope walks node's ancestor chain looking for an enclosing
// let-binding, function parameter, or case pattern bound to name — the
// local-scope levels of spec §4.7's shadowing order, innermost first since
// Ancestors() already returns nearest-first.
func resolveLowerInScope(tc *forest.TreeContainer, node *syntax.Node, name string) (*DefinitionNode, bool) {
	for _, anc := range node.Ancestors() {
		switch anc.Kind {
		case syntax.KindLetExpr:
			for _, b := range anc.ChildrenOfKind(syntax.KindLetBinding) {
				if len(b.Children) > 0 && b.Children[0].Text == name && b.Children[0] != node {
					return &DefinitionNode{tc.URI, b, NodeTypeLetBinding}, true
				}
			}
		case syntax.KindValueDecl, syntax.KindLetBinding, syntax.KindLambdaExpr:
			for _, c := range anc.Children {
				if c.Kind == syntax.KindFunctionParameter && c.Text == name && c != node && isBindableName(c.Text) {
					return &DefinitionNode{tc.URI, c, NodeTypeFunctionParameter}, true
				}
			}
		case syntax.KindCaseBranch:
			if len(anc.Children) == 0 {
				continue
			}
			if found := findPatternBinding(anc.Children[0], name); found != nil && found != node {
				return &DefinitionNode{tc.URI, found, NodeTypeCasePattern}, true
			}
		}
	}
	return nil, false
}

func findPatternBinding(n *syntax.Node, name string) *syntax.Node {
	if n.Kind != syntax.KindCasePattern {
		return nil
	}
	if len(n.Children) == 0 {
		if isBindableName(n.Text) && n.Text == name {
			return n
		}
		return nil
	}
	for _, c := range n.Children {
		if found := findPatternBinding(c, name); found != nil {
			return found
		}
	}
	return nil
}

func (r *Resolver) classifyUpper(tc *forest.TreeContainer, node *syntax.Node) (*DefinitionNode, bool) {
	name := node.Text

	if p := node.Parent; p != nil && len(p.Children) > 0 && p.Children[0] == node {
		switch p.Kind {
		case syntax.KindTypeAlias:
			return &DefinitionNode{tc.URI, p, NodeTypeTypeAlias}, true
		case syntax.KindUnionType:
			return &DefinitionNode{tc.URI, p, NodeTypeUnionType}, true
		case syntax.KindUnionVariant:
			return &DefinitionNode{tc.URI, p, NodeTypeUnionConstructor}, true
		}
	}

	if inTypePosition(node) {
		if b, ok := pickBinding(tc.Index.ByName(name), modindex.KindTypeAlias, modindex.KindUnionType); ok {
			return &DefinitionNode{tc.URI, b.DefiningNode, mapBindingKind(b.Kind)}, true
		}
		return r.resolveViaImports(tc, name, modindex.KindTypeAlias, modindex.KindUnionType)
	}

	if b, ok := pickBinding(tc.Index.ByName(name), modindex.KindUnionConstructor); ok {
		return &DefinitionNode{tc.URI, b.DefiningNode, NodeTypeUnionConstructor}, true
	}
	return r.resolveViaImports(tc, name, modindex.KindUnionConstructor)
}

// inTypePosition reports whether node sits inside a type-expression subtree
// rather than an expression or pattern. None of the grammar's type
// productions ever nest an expression, so finding any ancestor of these
// kinds is sufficient regardless of how deep node is.
func inTypePosition(node *syntax.Node) bool {
	for _, k := range []syntax.Kind{
		syntax.KindTypeAlias, syntax.KindPort, syntax.KindTypeAnnotation,
		syntax.KindUnionVariant, syntax.KindTypeExpr, syntax.KindRecordTypeExpr,
	} {
		if node.AncestorOfKind(k) != nil {
			return true
		}
	}
	return false
}

func (r *Resolver) classifyOperator(tc *forest.TreeContainer, node *syntax.Node) (*DefinitionNode, bool) {
	name := node.Text

	if p := node.Parent; p != nil {
		switch p.Kind {
		case syntax.KindValueDecl:
			if len(p.Children) > 0 && p.Children[0] == node {
				return &DefinitionNode{tc.URI, p, NodeTypeOperator}, true
			}
		case syntax.KindInfixDecl:
			if p.ChildOfKind(syntax.KindOperatorRef) == node {
				return &DefinitionNode{tc.URI, p, NodeTypeOperator}, true
			}
		}
	}

	if b, ok := pickBinding(tc.Index.ByName(name), modindex.KindOperator); ok {
		return &DefinitionNode{tc.URI, b.DefiningNode, NodeTypeOperator}, true
	}
	return r.resolveViaImports(tc, name, modindex.KindOperator)
}

func (r *Resolver) classifyQualified(tc *forest.TreeContainer, qvr *syntax.Node) (*DefinitionNode, bool) {
	if len(qvr.Children) < 2 {
		return nil, false
	}
	last := qvr.Children[len(qvr.Children)-1]
	qualifierText := strings.TrimSuffix(qvr.Text, "."+last.Text)

	resolved := r.imports.Resolve(tc.URI)
	var matched *imports.ResolvedImport
	for i := range resolved {
		if resolved[i].Alias != "" && resolved[i].Alias == qualifierText {
			matched = &resolved[i]
			break
		}
	}
	if matched == nil {
		for i := range resolved {
			if resolved[i].Alias == "" && resolved[i].SourceModule == qualifierText {
				matched = &resolved[i]
				break
			}
		}
	}
	if matched == nil || matched.Unresolved {
		return nil, false
	}

	target, ok := r.forest.GetByModule(matched.SourceModule)
	if !ok {
		return nil, false
	}

	var kinds []modindex.BindingKind
	switch {
	case last.Kind == syntax.KindLowerIdent:
		kinds = []modindex.BindingKind{modindex.KindValue, modindex.KindPort, modindex.KindOperator}
	case inTypePosition(qvr):
		kinds = []modindex.BindingKind{modindex.KindTypeAlias, modindex.KindUnionType}
	default:
		kinds = []modindex.BindingKind{modindex.KindUnionConstructor}
	}

	b, ok := pickBinding(target.Index.ByName(last.Text), kinds...)
	if !ok || !isExposed(target.Index, b) {
		return nil, false
	}
	return &DefinitionNode{target.URI, b.DefiningNode, mapBindingKind(b.Kind)}, true
}

// resolveViaImports checks the explicit import list and the default
// prelude, in the order imports.Resolve appends them, for a binding named
// name of one of kinds. The prelude has no backing source file, so a
// prelude hit (nothing in f.GetByModule) yields no definition location —
// it still shadows correctly, it just can't be jumped to.
func (r *Resolver) resolveViaImports(tc *forest.TreeContainer, name string, kinds ...modindex.BindingKind) (*DefinitionNode, bool) {
	for _, imp := range r.imports.Resolve(tc.URI) {
		if imp.Unresolved {
			continue
		}
		ref, ok := imp.ExposedLocally[name]
		if !ok {
			continue
		}
		target, ok := r.forest.GetByModule(ref.SourceModule)
		if !ok {
			continue
		}
		b, ok := pickBinding(target.Index.ByName(ref.OriginalName), kinds...)
		if !ok {
			continue
		}
		return &DefinitionNode{target.URI, b.DefiningNode, mapBindingKind(b.Kind)}, true
	}
	return nil, false
}

func pickBinding(bindings []modindex.TopLevelBinding, kinds ...modindex.BindingKind) (modindex.TopLevelBinding, bool) {
	for _, b := range bindings {
		for _, k := range kinds {
			if b.Kind == k {
				return b, true
			}
		}
	}
	return modindex.TopLevelBinding{}, false
}

func mapBindingKind(k modindex.BindingKind) NodeType {
	switch k {
	case modindex.KindValue:
		return NodeTypeValue
	case modindex.KindTypeAlias:
		return NodeTypeTypeAlias
	case modindex.KindUnionType:
		return NodeTypeUnionType
	case modindex.KindUnionConstructor:
		return NodeTypeUnionConstructor
	case modindex.KindPort:
		return NodeTypePort
	case modindex.KindOperator:
		return NodeTypeOperator
	default:
		return NodeTypeValue
	}
}

// isExposed reports whether a qualified reference from outside the
// defining module is allowed to see b at all, mirroring
// imports.exposedExternally (kept local to avoid exporting it just for
// this one caller).
func isExposed(index *modindex.Index, b modindex.TopLevelBinding) bool {
	switch b.Kind {
	case modindex.KindUnionType, modindex.KindTypeAlias:
		return index.Exposing.ExposesType(b.Name)
	case modindex.KindUnionConstructor:
		if b.ParentUnionType == nil {
			return false
		}
		parentName := b.ParentUnionType.ChildOfKind(syntax.KindUpperIdent)
		return parentName != nil && index.Exposing.ExposesConstructor(parentName.Text, b.Name)
	default:
		return index.Exposing.ExposesValue(b.Name)
	}
}
