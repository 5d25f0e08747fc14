package glimmer

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/jward/glimmer/internal/depsolve"
	"github.com/jward/glimmer/internal/forest"
	"github.com/jward/glimmer/internal/hostsink"
	"github.com/jward/glimmer/internal/imports"
	"github.com/jward/glimmer/internal/manifest"
	"github.com/jward/glimmer/internal/registry"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/xref"
)

// Workspace orchestrates the glimmer pipeline: manifest loading, dependency
// solving, source enumeration into the forest, and query access against
// the resolvers built on top of it.
type Workspace struct {
	root string

	manifest *manifest.Manifest
	registry *registry.Store
	solution depsolve.Solution

	reader  *source.Reader
	forest  *forest.Forest
	imports *imports.Resolver
	xref    *xref.Resolver

	sink *hostsink.Sink

	mu      sync.Mutex
	hashes  map[source.FileURI][32]byte
	depRoot string // directory holding checked-out dependency sources
}

// Option configures a Workspace at LoadWorkspace time.
type Option func(*workspaceConfig)

type workspaceConfig struct {
	registryPath string
	metadataDir  string
	depRoot      string
	sink         *hostsink.Sink
	watch        bool
}

// WithRegistryPath overrides the SQLite package-cache location. Defaults to
// "<root>/.glimmer/registry.db".
func WithRegistryPath(path string) Option {
	return func(c *workspaceConfig) { c.registryPath = path }
}

// WithMetadataDir points the package cache at a directory of on-disk
// package metadata files (registry.LoadMetadataDir) to bulk-load before
// solving. Optional — a Store with no metadata loaded simply has no
// packages, which fails Solve with UnknownPackage for any real dependency.
func WithMetadataDir(dir string) Option {
	return func(c *workspaceConfig) { c.metadataDir = dir }
}

// WithDependencySourceRoot overrides where solved dependencies' checked-out
// source lives. Defaults to "<root>/.glimmer/deps". A dependency's source
// is expected at "<depRoot>/<package-name>/<version>".
func WithDependencySourceRoot(dir string) Option {
	return func(c *workspaceConfig) { c.depRoot = dir }
}

// WithHostSink installs the capability a hosting process uses to receive
// non-fatal diagnostics from the reader and workspace. Defaults to a
// discarding sink.
func WithHostSink(sink *hostsink.Sink) Option {
	return func(c *workspaceConfig) { c.sink = sink }
}

// WithWatch starts (or disables) a filesystem watch over the project's
// source directories, delivering every create/write/remove event into
// ApplyFileChange automatically (spec §4.4 "watch them for
// create/delete/modify events"). Enabled by default; disable it for
// one-shot query tools like cmd/glimmerls's "index" subcommand that don't
// stay resident.
func WithWatch(enabled bool) Option {
	return func(c *workspaceConfig) { c.watch = enabled }
}

var (
	registryMu sync.Mutex
	registryMp = map[WorkspaceHandle]*Workspace{}
)

// LoadWorkspace reads the project manifest at rootPath, solves its
// dependency constraints against the package cache, enumerates the
// project's own source plus every solved dependency's read-only source
// into the forest, and returns an opaque handle for subsequent queries
// (spec §6 loadWorkspace).
func LoadWorkspace(rootPath string, opts ...Option) (WorkspaceHandle, error) {
	cfg := workspaceConfig{
		registryPath: filepath.Join(rootPath, ".glimmer", "registry.db"),
		depRoot:      filepath.Join(rootPath, ".glimmer", "deps"),
		sink:         hostsink.Discard(),
		watch:        true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := manifest.Load(filepath.Join(rootPath, "glimmer.yaml"))
	if err != nil {
		return "", wrapErr(ErrKindProjectMisconfigured, err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.registryPath), 0o755); err != nil {
		return "", wrapErr(ErrKindIoError, err)
	}
	store, err := registry.NewStore(cfg.registryPath)
	if err != nil {
		return "", wrapErr(ErrKindIoError, err)
	}
	if cfg.metadataDir != "" {
		if err := registry.LoadMetadataDir(store, cfg.metadataDir); err != nil {
			store.Close()
			return "", wrapErr(ErrKindIoError, err)
		}
	}

	solution, err := depsolve.Solve(store, m.Dependencies)
	if err != nil {
		store.Close()
		if err == depsolve.ErrUnsolvable {
			return "", wrapErr(ErrKindUnsolvable, err)
		}
		return "", wrapErr(ErrKindUnknownPackage, err)
	}

	reader, err := source.NewReader(rootPath, m.SourceDirectories)
	if err != nil {
		store.Close()
		return "", wrapErr(ErrKindProjectMisconfigured, err)
	}
	reader.SetSink(cfg.sink)

	f := forest.New()

	w := &Workspace{
		root:     rootPath,
		manifest: m,
		registry: store,
		solution: solution,
		reader:   reader,
		forest:   f,
		sink:     cfg.sink,
		hashes:   map[source.FileURI][32]byte{},
		depRoot:  cfg.depRoot,
	}

	if err := w.populate(); err != nil {
		store.Close()
		return "", wrapErr(ErrKindIoError, err)
	}

	w.imports = imports.NewResolver(f)
	w.xref = xref.NewResolver(f, w.imports)

	if cfg.watch {
		if err := reader.Watch(w.onWatchEvent); err != nil {
			w.sink.IoError("start watch: %v", err)
		}
	}

	h := newHandle()
	registryMu.Lock()
	registryMp[h] = w
	registryMu.Unlock()
	return h, nil
}

// populate enumerates the project's own source and every solved
// dependency's source into the forest, using the worker-pool pipeline for
// the bulk of the work.
func (w *Workspace) populate() error {
	projectEvents, err := w.reader.EnumerateProject()
	if err != nil {
		return err
	}

	var depEvents []source.Event
	for name, version := range w.solution {
		depDir := filepath.Join(w.depRoot, filepath.FromSlash(name), version.String())
		events, err := w.reader.EnumerateDependency(depDir, w.manifest.SourceDirectories)
		if err != nil {
			w.sink.IoError("enumerate dependency %s@%s: %v", name, version, err)
			continue
		}
		depEvents = append(depEvents, events...)
	}

	w.indexEventsParallel(append(projectEvents, depEvents...))
	return nil
}

func workspaceByHandle(h WorkspaceHandle) (*Workspace, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	w, ok := registryMp[h]
	return w, ok
}

// CloseWorkspace stops the workspace's file watcher (if started), closes
// its package cache, and releases the handle.
func CloseWorkspace(h WorkspaceHandle) error {
	registryMu.Lock()
	w, ok := registryMp[h]
	delete(registryMp, h)
	registryMu.Unlock()
	if !ok {
		return nil
	}
	var err error
	if cerr := w.reader.Close(); cerr != nil {
		err = cerr
	}
	if cerr := w.registry.Close(); cerr != nil {
		err = cerr
	}
	return err
}

// ApplyFileChange applies one incremental edit, delete, or creation to h's
// forest (spec §4.5 lifecycle). Unchanged content is detected by hashing
// and skipped. When the change alters the file's module bindings or
// exposing clause, every importer of the old and/or new module name has
// its cached resolved imports invalidated, generalizing the teacher's
// computeBlastRadius from a symbol-table diff to a module-index diff.
func ApplyFileChange(h WorkspaceHandle, uri source.FileURI, contents []byte, deleted bool) error {
	w, ok := workspaceByHandle(h)
	if !ok {
		return wrapErr(ErrKindProjectMisconfigured, fmt.Errorf("unknown workspace handle"))
	}
	return w.applyFileChange(uri, contents, deleted)
}

// onWatchEvent is the Reader.Watch callback: it routes filesystem change
// events through the same path applyFileChange takes, so a watched edit
// and an explicitly reported one invalidate caches identically.
func (w *Workspace) onWatchEvent(ev source.Event) {
	if err := w.applyFileChange(ev.URI, ev.Bytes, ev.Deleted); err != nil {
		w.sink.IoError("apply watch event for %s: %v", ev.URI, err)
	}
}

func (w *Workspace) applyFileChange(uri source.FileURI, contents []byte, deleted bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if deleted {
		old, hadOld := w.forest.GetByURI(uri)
		delete(w.hashes, uri)
		w.forest.Remove(uri)
		if hadOld {
			w.imports.InvalidateImportersOf(old.Index.ModuleName)
		}
		return nil
	}

	hash := sha256.Sum256(contents)
	if existing, ok := w.hashes[uri]; ok && existing == hash {
		return nil
	}

	old, hadOld := w.forest.GetByURI(uri)
	var oldModule string
	if hadOld {
		oldModule = old.Index.ModuleName
	}

	tc := w.forest.AddOrReplace(uri, contents, true)
	w.hashes[uri] = hash

	if !hadOld || bindingsChanged(old, tc) {
		if hadOld && oldModule != tc.Index.ModuleName {
			w.imports.InvalidateImportersOf(oldModule)
		}
		w.imports.InvalidateImportersOf(tc.Index.ModuleName)
	}
	return nil
}

// bindingsChanged reports whether new declares a different exported
// surface than old — its module name, its exposing clause, or its
// top-level binding names changed. That's exactly what can flip an
// importer's ExposedLocally map, so it's what gates
// InvalidateImportersOf, generalizing the teacher's symbol-signature-hash
// diff to the module index.
func bindingsChanged(old, updated *forest.TreeContainer) bool {
	if old.Index.ModuleName != updated.Index.ModuleName {
		return true
	}
	if !reflect.DeepEqual(old.Index.Exposing, updated.Index.Exposing) {
		return true
	}
	if len(old.Index.Bindings) != len(updated.Index.Bindings) {
		return true
	}
	oldNames := make(map[string]bool, len(old.Index.Bindings))
	for _, b := range old.Index.Bindings {
		oldNames[b.Name] = true
	}
	for _, b := range updated.Index.Bindings {
		if !oldNames[b.Name] {
			return true
		}
	}
	return false
}
