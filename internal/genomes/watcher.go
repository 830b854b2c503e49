package genomes

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/fsnotify/fsnotify"
)

func unmarshalLine(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Watcher invalidates the roster cache when genome files change on
// disk, so toggles made by other tools are picked up without restarts.
type Watcher struct {
	roster  *Roster
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher over the roster's directory.
func NewWatcher(roster *Roster) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(roster.dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{roster: roster, watcher: fw}, nil
}

// Start begins watching for roster changes.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[genomes] watch: %v", err)
			}
		}
	}()
}

// Stop stops watching for roster changes.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.Contains(event.Name, ".md") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.roster.Invalidate()
}
