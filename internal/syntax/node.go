// Package syntax implements the fixed-grammar concrete-syntax-tree parser
// used by the forest (spec §4.5). There is no off-the-shelf grammar for this
// language, so the lexer, the layout rule, and the recursive-descent parser
// are hand-rolled here, in place of the external tree-sitter grammars a
// multi-language tool would mount.
package syntax

import "fmt"

// Kind tags a Node with its grammar production. ERROR marks a subtree the
// parser could not make sense of; everything downstream skips it.
type Kind string

const (
	KindFile Kind = "File"
	KindError Kind = "ERROR"

	KindModuleDecl  Kind = "ModuleDecl"
	KindModuleName  Kind = "ModuleName"
	KindImportClause Kind = "ImportClause"
	KindImportAlias Kind = "ImportAlias"

	KindExposingList    Kind = "ExposingList"
	KindExposingAll     Kind = "ExposingAll"     // the bare ".." wildcard
	KindExposedValue    Kind = "ExposedValue"    // a bare lowercase name
	KindExposedType     Kind = "ExposedType"     // bare type name, no constructors
	KindExposedTypeAll  Kind = "ExposedTypeAll"  // T(..)
	KindExposedTypeSome Kind = "ExposedTypeSome" // T(A, B)
	KindExposedOperator Kind = "ExposedOperator" // (+)

	KindTypeAnnotation Kind = "TypeAnnotation"
	KindValueDecl      Kind = "ValueDecl"
	KindFunctionParameter          Kind = "FunctionParameter"
	KindAnonymousFunctionParameter Kind = "AnonymousFunctionParameter"
	KindWildcardParameter          Kind = "WildcardParameter"

	KindUnionType    Kind = "UnionType"
	KindUnionVariant Kind = "UnionVariant"
	KindTypeAlias    Kind = "TypeAlias"
	KindPort         Kind = "Port"
	KindInfixDecl    Kind = "InfixDecl"

	KindTypeExpr       Kind = "TypeExpr"
	KindTypeVar        Kind = "TypeVar"
	KindRecordTypeExpr Kind = "RecordTypeExpr"

	KindLetExpr    Kind = "LetExpr"
	KindLetBinding Kind = "LetBinding"
	KindCaseExpr   Kind = "CaseExpr"
	KindCaseBranch Kind = "CaseBranch"
	KindCasePattern Kind = "CasePattern"
	KindIfExpr     Kind = "IfExpr"
	KindLambdaExpr Kind = "LambdaExpr"

	KindApplication Kind = "Application"
	KindBinOpExpr   Kind = "BinOpExpr"
	KindParenExpr   Kind = "ParenExpr"
	KindTupleExpr   Kind = "TupleExpr"
	KindListExpr    Kind = "ListExpr"
	KindRecordExpr  Kind = "RecordExpr"
	KindRecordField Kind = "RecordField"

	KindQualifiedValueReference Kind = "QualifiedValueReference"
	KindLowerIdent              Kind = "LowerIdent"
	KindUpperIdent              Kind = "UpperIdent"
	KindOperatorRef             Kind = "OperatorRef"
	KindIntLiteral              Kind = "IntLiteral"
	KindFloatLiteral            Kind = "FloatLiteral"
	KindStringLiteral           Kind = "StringLiteral"
)

// Position is a 0-based (row, column) pair, matching the host editor
// protocol's convention.
type Position struct {
	Row    int
	Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Row, p.Column) }

// Node is one CST node. Children are kept in source order; Parent and the
// Prev/Next sibling links are wired by the parser once a node's children are
// final, never mutated afterward.
type Node struct {
	Kind       Kind
	Start, End int // byte offsets into the owning Tree's Source
	StartPos   Position
	EndPos     Position
	Text       string // source[Start:End], captured at construction

	Parent                *Node
	Children              []*Node
	PrevSibling, NextSibling *Node
}

// Covers reports whether the byte offset pos falls within the node's range.
func (n *Node) Covers(pos int) bool { return pos >= n.Start && pos <= n.End }

// SmallestNamedDescendant returns the deepest descendant (including n
// itself) whose byte range covers pos, preferring the child with the
// smallest range among siblings that all cover it. Implements spec §4.8
// step 1.
func (n *Node) SmallestNamedDescendant(pos int) *Node {
	if !n.Covers(pos) {
		return nil
	}
	var bestChild *Node
	for _, c := range n.Children {
		if c.Covers(pos) && (bestChild == nil || c.End-c.Start < bestChild.End-bestChild.Start) {
			bestChild = c
		}
	}
	if bestChild == nil {
		return n
	}
	return bestChild.SmallestNamedDescendant(pos)
}

// Ancestors walks from n's parent up to the tree root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// AncestorOfKind returns the nearest ancestor with the given kind, or nil.
func (n *Node) AncestorOfKind(k Kind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == k {
			return p
		}
	}
	return nil
}

// ChildOfKind returns the first direct child of the given kind, or nil.
func (n *Node) ChildOfKind(k Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// Walk visits n and every descendant, depth-first, pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ChildrenOfKind returns every direct child of the given kind.
func (n *Node) ChildrenOfKind(k Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Diagnostic records one parse-error location; the tree remains usable via
// its ERROR nodes even when diagnostics are non-empty.
type Diagnostic struct {
	Message string
	Pos     Position
}

// Tree is the parsed form of one file's bytes. A parse always produces a
// Tree — error recovery means malformed input yields ERROR nodes rather
// than a failed parse (spec §4.5).
type Tree struct {
	Source      []byte
	Root        *Node
	Diagnostics []Diagnostic
}

// NodeText returns the node's source slice. Equivalent to n.Text, kept as a
// method for symmetry with callers that only hold the Tree.
func (t *Tree) NodeText(n *Node) string { return n.Text }

// OffsetAt converts a 0-based (row, column) position into a byte offset
// into t.Source, using the same byte-column convention the lexer counts
// with (column advances one per byte, resets to 0 after '\n'). Callers
// translating an editor cursor into a tree lookup go through here rather
// than re-deriving the convention.
func (t *Tree) OffsetAt(pos Position) int {
	row, col := 0, 0
	for i, b := range t.Source {
		if row == pos.Row && col == pos.Column {
			return i
		}
		if b == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return len(t.Source)
}
