package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/glimmer"
	"github.com/spf13/cobra"
)

var (
	flagRegistryPath string
	flagMetadataDir  string
	flagDepRoot      string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Load a workspace, solving dependencies and populating the forest",
	Long:  "Reads the project manifest, runs the dependency solver, and enumerates project and dependency source into the forest, reporting timing and file counts.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagRegistryPath, "registry", "", "package cache database path (default: .glimmer/registry.db under the project root)")
	indexCmd.Flags().StringVar(&flagMetadataDir, "metadata-dir", "", "directory of on-disk package metadata files to load into the cache")
	indexCmd.Flags().StringVar(&flagDepRoot, "dep-root", "", "directory holding checked-out dependency source (default: .glimmer/deps under the project root)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root, err := resolveProjectRoot(args)
	if err != nil {
		return outputError("index", err)
	}

	opts := []glimmer.Option{glimmer.WithWatch(false)}
	if flagRegistryPath != "" {
		opts = append(opts, glimmer.WithRegistryPath(flagRegistryPath))
	}
	if flagMetadataDir != "" {
		opts = append(opts, glimmer.WithMetadataDir(flagMetadataDir))
	}
	if flagDepRoot != "" {
		opts = append(opts, glimmer.WithDependencySourceRoot(flagDepRoot))
	}

	h, err := glimmer.LoadWorkspace(root, opts...)
	if err != nil {
		return outputError("index", err)
	}
	defer glimmer.CloseWorkspace(h)

	f, _ := glimmer.GetForest(h)
	fileCount := len(f.All())
	duration := time.Since(start)

	fmt.Fprintf(os.Stderr, "Loaded %s in %s (%d files)\n", root, duration.Round(time.Millisecond), fileCount)

	one := 1
	return outputResult(CLIResult{
		Command:    "index",
		Results:    map[string]any{"root": root, "file_count": fileCount},
		TotalCount: &one,
	})
}

// resolveProjectRoot returns the absolute path of the project to load,
// walking up from the given (or current) directory to find a glimmer.yaml
// manifest, the way cmd/canopy's findRepoRoot walks up to a .git directory.
func resolveProjectRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	return findProjectRoot(abs), nil
}

func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, "glimmer.yaml")); err == nil && !info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
