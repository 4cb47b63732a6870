package pdp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/trace"
)

// DirRetrievalPoint watches a directory for file add/remove events and
// serves whichever registered documents currently have a matching file
// present — grounded on vishprometa-agent-warden's mdloader.Watcher
// (recursive fsnotify watch, invalidate-on-change), redirected from
// "which markdown files exist" to "which policy documents are currently
// deployed". Since parsing policy source text is out of scope (the same
// convention policy.Document's own doc comment states — documents are
// assembled directly rather than parsed), a document is registered in
// advance under the file name it is meant to track; the directory acts
// purely as the deployment signal, not as the document's content.
type DirRetrievalPoint struct {
	dir string

	mu        sync.RWMutex
	available map[string]bool
	registry  map[string]combine.Document

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDirRetrievalPoint starts watching dir. Call Register for every
// document this retrieval point should be able to serve before documents
// are expected to appear.
func NewDirRetrievalPoint(dir string) (*DirRetrievalPoint, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	d := &DirRetrievalPoint{
		dir:       dir,
		available: make(map[string]bool),
		registry:  make(map[string]combine.Document),
		watcher:   w,
		done:      make(chan struct{}),
	}
	d.scan()
	go d.loop()
	return d, nil
}

// Register associates doc with the file name (without extension) whose
// presence in dir signals that doc is deployed.
func (d *DirRetrievalPoint) Register(fileStem string, doc combine.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry[fileStem] = doc
}

// Close stops the filesystem watch.
func (d *DirRetrievalPoint) Close() error {
	close(d.done)
	return d.watcher.Close()
}

func (d *DirRetrievalPoint) loop() {
	for {
		select {
		case <-d.done:
			return
		case _, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.scan()
		case _, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (d *DirRetrievalPoint) scan() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		present[stem] = true
	}

	d.mu.Lock()
	d.available = present
	d.mu.Unlock()
}

// MatchingDocuments implements RetrievalPoint: every registered document
// whose file stem is currently present in dir. Deliberately does not
// report a missing file as a trace.RetrievalError — an undeployed document
// is not a retrieval failure, just not currently applicable.
func (d *DirRetrievalPoint) MatchingDocuments(ctx context.Context, sub evalctx.Subscription) ([]combine.Document, int, []trace.RetrievalError) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]combine.Document, 0, len(d.registry))
	for stem, doc := range d.registry {
		if d.available[stem] {
			docs = append(docs, doc)
		}
	}
	return docs, len(docs), nil
}
