// Package modindex implements the module index (C6): for each parsed tree,
// extracts the module declaration, its exposing clause, and every
// top-level binding (spec §4.6). Index construction is a pure function of
// one tree — it never looks at any other tree in the forest.
package modindex

import "github.com/jward/glimmer/internal/syntax"

// BindingKind classifies a TopLevelBinding (spec §3 "TopLevelBinding").
type BindingKind string

const (
	KindValue            BindingKind = "Value"
	KindTypeAlias        BindingKind = "TypeAlias"
	KindUnionType        BindingKind = "UnionType"
	KindUnionConstructor BindingKind = "UnionConstructor"
	KindPort             BindingKind = "Port"
	KindOperator         BindingKind = "Operator"
)

// TopLevelBinding is one file-scope name: a value, a type alias, a union
// type or one of its constructors, a port, or an infix operator.
type TopLevelBinding struct {
	Name               string
	Kind               BindingKind
	DefiningNode       *syntax.Node
	TypeAnnotationNode *syntax.Node // nil if no preceding "name : Type" sibling
	ParentUnionType    *syntax.Node // set only for UnionConstructor bindings
}

// ExposingSet is either the wildcard form or an explicit set of exported
// names. Constructors can be exposed as a whole union (T(..)) or
// individually (T(A, B)).
type ExposingSet struct {
	All          bool
	Values       map[string]bool
	TypeAll      map[string]bool
	TypeSome     map[string]map[string]bool
}

func newExposingSet() ExposingSet {
	return ExposingSet{
		Values:   map[string]bool{},
		TypeAll:  map[string]bool{},
		TypeSome: map[string]map[string]bool{},
	}
}

// ExposesValue reports whether name (a value, port, or bare type name) is
// exposed.
func (e ExposingSet) ExposesValue(name string) bool {
	return e.All || e.Values[name]
}

// ExposesType reports whether the union/alias type named name is exposed,
// in any form (bare, T(..), or T(A, B) all imply the type name itself is
// visible).
func (e ExposingSet) ExposesType(name string) bool {
	if e.All || e.Values[name] || e.TypeAll[name] {
		return true
	}
	_, ok := e.TypeSome[name]
	return ok
}

// ExposesConstructor reports whether constructor ctorName of union type
// unionName is exposed.
func (e ExposingSet) ExposesConstructor(unionName, ctorName string) bool {
	if e.All || e.TypeAll[unionName] {
		return true
	}
	return e.TypeSome[unionName][ctorName]
}

// Index is the module index for a single tree.
type Index struct {
	ModuleName string
	Exposing   ExposingSet
	Bindings   []TopLevelBinding
	byName     map[string][]TopLevelBinding
}

// ByName returns every top-level binding with the given name. More than
// one may exist only across kinds that can't collide in practice (the
// grammar doesn't allow it), so callers typically use [0].
func (idx *Index) ByName(name string) []TopLevelBinding {
	return idx.byName[name]
}

// Build extracts the module index from tree. If the file has no module
// declaration, the module name is synthesized as "Main" per spec §4.6.
func Build(tree *syntax.Tree) *Index {
	idx := &Index{ModuleName: "Main", Exposing: newExposingSet(), byName: map[string][]TopLevelBinding{}}

	var pendingAnnotationName string
	var pendingAnnotationNode *syntax.Node

	addBinding := func(b TopLevelBinding) {
		idx.Bindings = append(idx.Bindings, b)
		idx.byName[b.Name] = append(idx.byName[b.Name], b)
	}

	for _, decl := range tree.Root.Children {
		switch decl.Kind {
		case syntax.KindModuleDecl:
			if nameNode := decl.ChildOfKind(syntax.KindModuleName); nameNode != nil {
				idx.ModuleName = nameNode.Text
			}
			if list := decl.ChildOfKind(syntax.KindExposingList); list != nil {
				idx.Exposing = buildExposingSet(list)
			}

		case syntax.KindTypeAnnotation:
			nameNode := decl.ChildOfKind(syntax.KindLowerIdent)
			if nameNode != nil {
				pendingAnnotationName = nameNode.Text
				pendingAnnotationNode = decl
			}
			continue

		case syntax.KindValueDecl:
			nameNode := decl.Children[0]
			name := nameNode.Text
			kind := KindValue
			if nameNode.Kind == syntax.KindOperatorRef {
				kind = KindOperator
			}
			var annotation *syntax.Node
			if pendingAnnotationName == name {
				annotation = pendingAnnotationNode
			}
			addBinding(TopLevelBinding{Name: name, Kind: kind, DefiningNode: decl, TypeAnnotationNode: annotation})

		case syntax.KindTypeAlias:
			if nameNode := decl.ChildOfKind(syntax.KindUpperIdent); nameNode != nil {
				addBinding(TopLevelBinding{Name: nameNode.Text, Kind: KindTypeAlias, DefiningNode: decl})
			}

		case syntax.KindUnionType:
			nameNode := decl.ChildOfKind(syntax.KindUpperIdent)
			if nameNode == nil {
				continue
			}
			addBinding(TopLevelBinding{Name: nameNode.Text, Kind: KindUnionType, DefiningNode: decl})
			for _, variant := range decl.ChildrenOfKind(syntax.KindUnionVariant) {
				ctorName := variant.ChildOfKind(syntax.KindUpperIdent)
				if ctorName == nil {
					continue
				}
				addBinding(TopLevelBinding{
					Name:            ctorName.Text,
					Kind:            KindUnionConstructor,
					DefiningNode:    variant,
					ParentUnionType: decl,
				})
			}

		case syntax.KindPort:
			if nameNode := decl.ChildOfKind(syntax.KindLowerIdent); nameNode != nil {
				addBinding(TopLevelBinding{Name: nameNode.Text, Kind: KindPort, DefiningNode: decl})
			}

		case syntax.KindInfixDecl:
			if opNode := decl.ChildOfKind(syntax.KindOperatorRef); opNode != nil {
				addBinding(TopLevelBinding{Name: opNode.Text, Kind: KindOperator, DefiningNode: decl})
			}
		}

		pendingAnnotationName = ""
		pendingAnnotationNode = nil
	}

	return idx
}

func buildExposingSet(list *syntax.Node) ExposingSet {
	set := newExposingSet()
	for _, item := range list.Children {
		switch item.Kind {
		case syntax.KindExposingAll:
			set.All = true
		case syntax.KindExposedValue:
			set.Values[item.Text] = true
		case syntax.KindExposedType:
			set.Values[item.Text] = true
		case syntax.KindExposedOperator:
			if op := item.ChildOfKind(syntax.KindOperatorRef); op != nil {
				set.Values[op.Text] = true
			}
		case syntax.KindExposedTypeAll:
			if name := item.ChildOfKind(syntax.KindUpperIdent); name != nil {
				set.TypeAll[name.Text] = true
			}
		case syntax.KindExposedTypeSome:
			upperChildren := item.ChildrenOfKind(syntax.KindUpperIdent)
			if len(upperChildren) == 0 {
				continue
			}
			typeName := upperChildren[0].Text
			ctors := map[string]bool{}
			for _, c := range upperChildren[1:] {
				ctors[c.Text] = true
			}
			set.TypeSome[typeName] = ctors
		}
	}
	return set
}
