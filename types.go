package glimmer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jward/glimmer/internal/imports"
	"github.com/jward/glimmer/internal/xref"
)

// Public type aliases over the internal package types that make up the
// core's external interface (spec §6). External consumers use these
// names; no conversion is needed, the same pattern the teacher uses for
// its QueryBuilder result types.
type (
	DefinitionNode = xref.DefinitionNode
	NodeType       = xref.NodeType
	Reference      = xref.Reference
	ReferenceKind  = xref.ReferenceKind
	ResolvedImport = imports.ResolvedImport
	OriginalRef    = imports.OriginalRef
)

// WorkspaceHandle is the opaque identifier §6's external interface hands
// back from loadWorkspace and expects on every subsequent call. Minted
// with uuid.New the same way the pack's own stores mint opaque row
// identifiers.
type WorkspaceHandle string

func newHandle() WorkspaceHandle {
	return WorkspaceHandle(uuid.New().String())
}

// ErrorKind classifies a core-level failure (spec §7).
type ErrorKind string

const (
	ErrKindProjectMisconfigured ErrorKind = "ProjectMisconfigured"
	ErrKindUnknownPackage       ErrorKind = "UnknownPackage"
	ErrKindUnsolvable           ErrorKind = "Unsolvable"
	ErrKindCancelled            ErrorKind = "Cancelled"
	ErrKindIoError              ErrorKind = "IoError"
)

// Error is the core's wrapped-error envelope: a kind plus the underlying
// cause, in the teacher's fmt.Errorf("%w", ...) wrapping style.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// EmptyType is one grammar-intrinsic type with no Glimmer-source
// definition (spec §6 getEmptyTypes).
type EmptyType struct {
	Name     string
	Markdown string
}

var emptyTypeDocs = map[string]string{
	"List":   "An ordered, homogeneous sequence of values.",
	"String": "A sequence of Unicode characters.",
	"Int":    "An arbitrary-precision signed integer.",
	"Float":  "A 64-bit floating point number.",
	"Char":   "A single Unicode character.",
	"Bool":   "A value of `True` or `False`.",
}

// GetEmptyTypes returns the grammar-intrinsic types with no source
// definition, each with a short hover-style blurb (spec §6). The name
// list is shared with the import resolver's default prelude so the two
// can't drift apart.
func GetEmptyTypes() []EmptyType {
	names := imports.PreludeTypeNames()
	out := make([]EmptyType, len(names))
	for i, name := range names {
		out[i] = EmptyType{Name: name, Markdown: emptyTypeDocs[name]}
	}
	return out
}
