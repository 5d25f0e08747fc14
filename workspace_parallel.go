package glimmer

import (
	"crypto/sha256"
	"runtime"
	"sync"

	"github.com/jward/glimmer/internal/modindex"
	"github.com/jward/glimmer/internal/source"
	"github.com/jward/glimmer/internal/syntax"
)

// parsedItem is one file's Phase B output: everything Phase C needs to
// commit it to the forest and update the incremental-update hash baseline.
type parsedItem struct {
	uri       source.FileURI
	writeable bool
	hash      [32]byte
	tree      *syntax.Tree
	index     *modindex.Index
}

// indexEventsParallel populates the forest from events using the same
// three-phase shape the teacher's IndexFilesParallel uses for bulk
// indexing:
//
//	Phase A (serial):   nothing to prepare beyond what the reader already did.
//	Phase B (parallel): parse each file and build its module index.
//	Phase C (serial):   commit each parsed tree to the forest and record its hash.
//
// Deleted events are skipped — initial population never sees one.
//
// indexEventsParallel holds w.mu for the whole Phase C commit loop while
// forest.AddParsed takes its own, separate lock per call; only populate
// calls this, before LoadWorkspace publishes the handle, so there is no
// concurrent ApplyFileChange call that could contend on w.mu at the same
// time.
func (w *Workspace) indexEventsParallel(events []source.Event) {
	var items []source.Event
	for _, ev := range events {
		if !ev.Deleted {
			items = append(items, ev)
		}
	}
	if len(items) == 0 {
		return
	}

	numWorkers := min(runtime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan source.Event, len(items))
	for _, ev := range items {
		workCh <- ev
	}
	close(workCh)

	resultCh := make(chan parsedItem, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range workCh {
				resultCh <- parseEvent(ev)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	w.mu.Lock()
	defer w.mu.Unlock()
	for item := range resultCh {
		w.forest.AddParsed(item.uri, item.tree, item.index, item.writeable)
		w.hashes[item.uri] = item.hash
	}
}

// parseEvent does the CPU-bound Phase B work for a single file, safe to
// run concurrently across workers since syntax.Parse and modindex.Build
// each operate on their own input with no shared state.
func parseEvent(ev source.Event) parsedItem {
	tree := syntax.Parse(ev.Bytes)
	idx := modindex.Build(tree)
	return parsedItem{
		uri:       ev.URI,
		writeable: ev.Writeable,
		hash:      sha256.Sum256(ev.Bytes),
		tree:      tree,
		index:     idx,
	}
}
