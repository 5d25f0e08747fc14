// Package source implements the source reader (C4): it locates, reads, and
// watches a project's source directories and the source directories of its
// solved dependencies, delivering (uri, bytes, writeable) tuples to the
// forest (spec §4.4).
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/glimmer/internal/hostsink"
	"github.com/jward/glimmer/internal/manifest"
)

// FileURI is an opaque absolute identifier for a source file. The reader
// uses the cleaned absolute filesystem path.
type FileURI string

// Event is one (uri, bytes, writeable) delivery the forest applies to
// addOrReplace, or a Deleted marker applied to remove.
type Event struct {
	URI       FileURI
	Bytes     []byte
	Writeable bool
	Deleted   bool
}

// Reader enumerates and watches one project's source directories, plus the
// read-only source directories of its selected dependencies.
type Reader struct {
	root     string
	patterns []string
	ignore   *ignore.GitIgnore
	watcher  *fsnotify.Watcher
	sink     *hostsink.Sink
}

// SetSink installs the capability the reader reports skipped files and
// read errors to. Called by the workspace after NewReader, once its own
// sink (from WithHostSink, or the default discarding one) is known.
func (r *Reader) SetSink(sink *hostsink.Sink) {
	r.sink = sink
}

// NewReader builds a Reader for a project rooted at root, matching files
// against the manifest's source-directory glob patterns. If root has a
// .glimmerignore file, its patterns exclude matches the way .gitignore
// excludes tracked files.
func NewReader(root string, patterns []string) (*Reader, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: source root %s does not exist", manifest.ErrProjectMisconfigured, root)
	}
	gi := ignore.CompileIgnoreLines() // empty by default
	if data, err := os.ReadFile(filepath.Join(root, ".glimmerignore")); err == nil {
		gi = ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	}
	return &Reader{root: root, patterns: patterns, ignore: gi, sink: hostsink.Discard()}, nil
}

// EnumerateProject walks the project root, matching every regular file
// against the manifest's source-directory glob patterns and excluding
// anything the ignore file covers. Per-file read errors are logged and the
// file is skipped rather than aborting the whole walk.
func (r *Reader) EnumerateProject() ([]Event, error) {
	return r.enumerate(r.root, r.patterns, true)
}

// EnumerateDependency walks a solved dependency's checked-out source root,
// matching the given glob patterns. Dependency files are always read-only.
func (r *Reader) EnumerateDependency(depRoot string, patterns []string) ([]Event, error) {
	info, err := os.Stat(depRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: dependency source root %s does not exist", manifest.ErrProjectMisconfigured, depRoot)
	}
	return r.enumerate(depRoot, patterns, false)
}

func (r *Reader) enumerate(root string, patterns []string, writeable bool) ([]Event, error) {
	var events []Event
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			r.sink.IoError("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if writeable && r.ignore != nil && r.ignore.MatchesPath(rel) {
			return nil
		}
		if !matchesAny(rel, patterns) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			r.sink.IoError("read error for %s: %v", path, err)
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		events = append(events, Event{URI: FileURI(abs), Bytes: data, Writeable: writeable})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", root, err)
	}
	return events, nil
}

func matchesAny(relPath string, patterns []string) bool {
	for _, pat := range patterns {
		ok, err := doublestar.Match(pat, relPath)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Watch starts an fsnotify watcher over the project root and delivers
// create/write/remove events matching the source patterns to onEvent until
// Close is called. Watch adds a recursive watch per
// directory discovered at startup and extends it as new directories appear.
func (r *Reader) Watch(onEvent func(Event)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("source: create watcher: %w", err)
	}
	r.watcher = w

	if err := filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != r.root {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	}); err != nil {
		w.Close()
		return fmt.Errorf("source: watch %s: %w", r.root, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				r.handleWatchEvent(ev, onEvent)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.sink.IoError("watch error: %v", err)
			}
		}
	}()
	return nil
}

func (r *Reader) handleWatchEvent(ev fsnotify.Event, onEvent func(Event)) {
	rel, err := filepath.Rel(r.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if r.ignore != nil && r.ignore.MatchesPath(rel) {
		return
	}

	if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
		if ev.Op&fsnotify.Create != 0 {
			r.watcher.Add(ev.Name)
		}
		return
	}

	if !matchesAny(rel, r.patterns) {
		return
	}

	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		abs = ev.Name
	}

	switch {
	case ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0:
		onEvent(Event{URI: FileURI(abs), Deleted: true})
	case ev.Op&fsnotify.Write != 0 || ev.Op&fsnotify.Create != 0:
		data, err := os.ReadFile(ev.Name)
		if err != nil {
			r.sink.IoError("read error for %s: %v", ev.Name, err)
			return
		}
		onEvent(Event{URI: FileURI(abs), Bytes: data, Writeable: true})
	}
}

// Close stops the watcher, if one was started.
func (r *Reader) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}
