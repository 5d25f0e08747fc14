// Package glimmer implements the semantic core of a language-intelligence
// backend for Glimmer, a statically-typed, pure functional language with an
// ML-style module/package system. It bridges a fixed, hand-rolled concrete
// syntax tree with full cross-file go-to-definition and find-references.
//
// # Pipeline
//
// glimmer operates in two phases:
//
//  1. Load: read the project manifest, solve its dependency constraints
//     against the package cache, and populate the forest by parsing every
//     source file the manifest's source directories match (including the
//     read-only source of every solved dependency).
//
//  2. Query: against the loaded forest, resolve go-to-definition and
//     find-references queries, and track resolved imports per file.
//
// # Usage
//
//	h, err := glimmer.LoadWorkspace("path/to/project")
//	if err != nil { ... }
//	defer glimmer.CloseWorkspace(h)
//
//	def, ok := glimmer.FindDefinition(h, uri, position)
//	refs, err := glimmer.FindReferences(ctx, h, *def)
//
// # Incremental updates
//
// [ApplyFileChange] detects unchanged files via content hashing and skips
// them. When a file's bindings or exposing clause actually change, glimmer
// invalidates only the cached resolved imports of files that imported the
// changed module, rather than forcing a full-forest re-resolution.
//
// # External interfaces
//
// The programmatic surface a hosting editor-protocol layer calls into:
// [LoadWorkspace], [ApplyFileChange], [GetForest], [GetTree],
// [FindDefinition], [FindReferences], [GetImports], [GetEmptyTypes].
package glimmer
