package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jward/glimmer"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a loaded workspace",
	Long:  "Loads the project containing the given file and runs a single query against it. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(importsCmd)
	queryCmd.AddCommand(emptyTypesCmd)
}

// openWorkspaceFor loads the project containing file, returning the handle
// and file's absolute path. Each invocation of glimmerls is a fresh
// process, so there's no point caching a handle across commands.
func openWorkspaceFor(file string) (glimmer.WorkspaceHandle, source.FileURI, error) {
	abs, err := resolveFilePath(file)
	if err != nil {
		return "", "", err
	}
	root := findProjectRoot(abs)
	h, err := glimmer.LoadWorkspace(root, glimmer.WithWatch(false))
	if err != nil {
		return "", "", err
	}
	return h, source.FileURI(abs), nil
}

func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	return n, nil
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition of the name at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runDefinition,
}

func runDefinition(cmd *cobra.Command, args []string) error {
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("definition", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("definition", err)
	}

	h, uri, err := openWorkspaceFor(args[0])
	if err != nil {
		return outputError("definition", err)
	}
	defer glimmer.CloseWorkspace(h)

	def, ok := glimmer.FindDefinition(h, uri, syntax.Position{Row: line, Column: col})
	if !ok {
		return outputResult(CLIResult{Command: "definition", Results: nil})
	}

	loc := CLILocation{
		File: string(def.URI),
		Line: def.Node.StartPos.Row,
		Col:  def.Node.StartPos.Column,
		Kind: string(def.NodeType),
	}
	one := 1
	return outputResult(CLIResult{Command: "definition", Results: loc, TotalCount: &one})
}

var referencesCmd = &cobra.Command{
	Use:   "references <file> <line> <col>",
	Short: "Find all references to the name defined at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("references", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("references", err)
	}

	h, uri, err := openWorkspaceFor(args[0])
	if err != nil {
		return outputError("references", err)
	}
	defer glimmer.CloseWorkspace(h)

	def, ok := glimmer.FindDefinition(h, uri, syntax.Position{Row: line, Column: col})
	if !ok {
		return outputResult(CLIResult{Command: "references", Results: nil})
	}

	refs, err := glimmer.FindReferences(context.Background(), h, *def)
	if err != nil {
		return outputError("references", err)
	}

	locs := make([]CLILocation, len(refs))
	for i, r := range refs {
		locs[i] = CLILocation{File: string(r.URI), Line: r.Node.StartPos.Row, Col: r.Node.StartPos.Column, Kind: string(r.Kind)}
	}
	count := len(locs)
	return outputResult(CLIResult{Command: "references", Results: locs, TotalCount: &count})
}

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List a file's resolved imports",
	Args:  cobra.ExactArgs(1),
	RunE:  runImports,
}

func runImports(cmd *cobra.Command, args []string) error {
	h, uri, err := openWorkspaceFor(args[0])
	if err != nil {
		return outputError("imports", err)
	}
	defer glimmer.CloseWorkspace(h)

	resolved, err := glimmer.GetImports(h, uri)
	if err != nil {
		return outputError("imports", err)
	}

	out := make([]CLIImport, len(resolved))
	for i, r := range resolved {
		exposed := make([]string, 0, len(r.ExposedLocally))
		for name := range r.ExposedLocally {
			exposed = append(exposed, name)
		}
		out[i] = CLIImport{SourceModule: r.SourceModule, Alias: r.Alias, Unresolved: r.Unresolved, Exposed: exposed}
	}
	count := len(out)
	return outputResult(CLIResult{Command: "imports", Results: out, TotalCount: &count})
}

var emptyTypesCmd = &cobra.Command{
	Use:   "empty-types",
	Short: "List the grammar-intrinsic types with no source definition",
	Args:  cobra.NoArgs,
	RunE:  runEmptyTypes,
}

func runEmptyTypes(cmd *cobra.Command, args []string) error {
	types := glimmer.GetEmptyTypes()
	out := make([]CLIEmptyType, len(types))
	for i, t := range types {
		out[i] = CLIEmptyType{Name: t.Name, Markdown: t.Markdown}
	}
	count := len(out)
	return outputResult(CLIResult{Command: "empty-types", Results: out, TotalCount: &count})
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}
