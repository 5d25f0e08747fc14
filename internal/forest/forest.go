// Package forest implements the forest (C5): the collection of parsed
// trees keyed by file URI, plus the secondary module-name index, kept
// consistent as files are added, replaced, and removed (spec §4.5).
package forest

import (
	"sync"

	"github.com/jward/glimmer/internal/modindex"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// TreeContainer bundles one file's parsed tree with the module index built
// from it. It is replaced wholesale on every reparse — callers that hold a
// *TreeContainer across a mutation are holding a stale snapshot, not a
// live view (spec §3 "Lifecycle").
type TreeContainer struct {
	URI        source.FileURI
	Tree       *syntax.Tree
	Writeable  bool
	Index      *modindex.Index
	Generation uint64
}

// Forest is Map<FileURI, TreeContainer> plus the secondary
// Map<ModuleName, FileURI>. Trees are indexed by module name whether
// writeable or read-only, so a dependency's module is as reachable via
// GetByModule as a project file's. When two trees declare the same module
// name only one holds it: a writeable tree keeps the name over a read-only
// one, and otherwise the later tree wins. addOrReplace and remove keep the
// two maps in lockstep.
type Forest struct {
	mu       sync.RWMutex
	byURI    map[source.FileURI]*TreeContainer
	byModule map[string]source.FileURI
	nextGen  uint64
}

// New returns an empty forest.
func New() *Forest {
	return &Forest{
		byURI:    map[source.FileURI]*TreeContainer{},
		byModule: map[string]source.FileURI{},
	}
}

// AddOrReplace parses bytes, rebuilds the TreeContainer, and updates both
// maps. If uri already exists, its previous module-name mapping is
// removed first so the secondary index never points at two URIs.
func (f *Forest) AddOrReplace(uri source.FileURI, bytes []byte, writeable bool) *TreeContainer {
	tree := syntax.Parse(bytes)
	idx := modindex.Build(tree)

	f.mu.Lock()
	defer f.mu.Unlock()

	if old, ok := f.byURI[uri]; ok {
		if f.byModule[old.Index.ModuleName] == uri {
			delete(f.byModule, old.Index.ModuleName)
		}
	}

	f.nextGen++
	tc := &TreeContainer{
		URI:        uri,
		Tree:       tree,
		Writeable:  writeable,
		Index:      idx,
		Generation: f.nextGen,
	}
	f.byURI[uri] = tc
	f.indexModule(tc)
	return tc
}

// AddParsed commits an already-parsed tree and index, built by a caller
// off the lock (e.g. a parallel parse worker), the same way AddOrReplace
// commits one it parsed itself. Splitting parse from commit lets a bulk
// loader parse many files concurrently while keeping map mutation
// single-writer.
func (f *Forest) AddParsed(uri source.FileURI, tree *syntax.Tree, idx *modindex.Index, writeable bool) *TreeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()

	if old, ok := f.byURI[uri]; ok {
		if f.byModule[old.Index.ModuleName] == uri {
			delete(f.byModule, old.Index.ModuleName)
		}
	}

	f.nextGen++
	tc := &TreeContainer{
		URI:        uri,
		Tree:       tree,
		Writeable:  writeable,
		Index:      idx,
		Generation: f.nextGen,
	}
	f.byURI[uri] = tc
	f.indexModule(tc)
	return tc
}

// indexModule records tc under its module name, the one place both
// AddOrReplace and AddParsed funnel through to keep the collision rule in
// one spot. Every tree is indexed, writeable or not, so a solved
// dependency's module is reachable via GetByModule exactly like a project
// file's. The only tiebreak is: a writeable tree already holding a module
// name is never displaced by a read-only one — a project file always wins
// over a same-named dependency. Otherwise (two writeable files, two
// read-only files, or a writeable file claiming a name a read-only file
// held) the later call wins.
func (f *Forest) indexModule(tc *TreeContainer) {
	if existingURI, ok := f.byModule[tc.Index.ModuleName]; ok && existingURI != tc.URI {
		if existing, ok := f.byURI[existingURI]; ok && existing.Writeable && !tc.Writeable {
			return
		}
	}
	f.byModule[tc.Index.ModuleName] = tc.URI
}

// Remove deletes uri from the forest. Any cached analysis keyed on its
// generation number becomes unreachable, since the TreeContainer it was
// computed against is gone.
func (f *Forest) Remove(uri source.FileURI) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tc, ok := f.byURI[uri]
	if !ok {
		return
	}
	delete(f.byURI, uri)
	if f.byModule[tc.Index.ModuleName] == uri {
		delete(f.byModule, tc.Index.ModuleName)
	}
}

// GetByURI returns the TreeContainer for uri, if any.
func (f *Forest) GetByURI(uri source.FileURI) (*TreeContainer, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tc, ok := f.byURI[uri]
	return tc, ok
}

// GetByModule returns the TreeContainer, writeable or read-only, whose
// module declares name, if any.
func (f *Forest) GetByModule(name string) (*TreeContainer, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	uri, ok := f.byModule[name]
	if !ok {
		return nil, false
	}
	return f.byURI[uri], true
}

// AllWriteable returns every writeable TreeContainer currently in the
// forest. Used by find-all-references to scan every importer.
func (f *Forest) AllWriteable() []*TreeContainer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*TreeContainer, 0, len(f.byURI))
	for _, tc := range f.byURI {
		if tc.Writeable {
			out = append(out, tc)
		}
	}
	return out
}

// All returns every TreeContainer, writeable or read-only.
func (f *Forest) All() []*TreeContainer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*TreeContainer, 0, len(f.byURI))
	for _, tc := range f.byURI {
		out = append(out, tc)
	}
	return out
}
