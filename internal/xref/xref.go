// Package xref implements the reference/definition resolver (C8): given a
// cursor position, classify the node under it and walk outward through the
// scopes spec §4.7 defines (local bindings, parameters, patterns, file
// scope, imports, prelude) until a binding is found or the chain is
// exhausted (spec §4.8). Find-all-references runs the same classification
// in reverse across every writeable tree.
package xref

import (
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// NodeType names the kind of binding a DefinitionNode points at. It mixes
// modindex.BindingKind (top-level bindings) with the local-scope forms
// spec §4.8 classifies separately, since a reference can land on either.
type NodeType string

const (
	NodeTypeFunctionParameter NodeType = "FunctionParameter"
	NodeTypeCasePattern       NodeType = "CasePattern"
	NodeTypeLetBinding        NodeType = "LetBinding"
	NodeTypeValue             NodeType = "Value"
	NodeTypeTypeAlias         NodeType = "TypeAlias"
	NodeTypeUnionType         NodeType = "UnionType"
	NodeTypeUnionConstructor  NodeType = "UnionConstructor"
	NodeTypePort              NodeType = "Port"
	NodeTypeOperator          NodeType = "Operator"
)

// DefinitionNode is the resolved target of a go-to-definition query.
type DefinitionNode struct {
	URI      source.FileURI
	Node     *syntax.Node
	NodeType NodeType
}

// ReferenceKind distinguishes the four occurrence forms find-all-references
// reports (spec §4.8 "must consider").
type ReferenceKind string

const (
	ReferenceKindDefinition         ReferenceKind = "Definition"
	ReferenceKindUse                ReferenceKind = "Use"
	ReferenceKindExposingClauseEntry ReferenceKind = "ExposingClauseEntry"
	ReferenceKindImportClauseEntry  ReferenceKind = "ImportClauseEntry"
)

// Reference is one occurrence of a name that resolves back to a
// DefinitionNode.
type Reference struct {
	URI  source.FileURI
	Node *syntax.Node
	Kind ReferenceKind
}
