package outline

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports external writes to an outline file, so an active session
// can reload notes edited in another editor. The containing directory is
// watched rather than the file itself, surviving editors that replace the
// file by rename.
type Watcher struct {
	fs      *fsnotify.Watcher
	path    string
	changes chan struct{}
}

// WatchFile starts watching the outline file at path.
func WatchFile(path string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fs.Close()
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{fs: fs, path: abs, changes: make(chan struct{}, 1)}
	go w.run()
	return w, nil
}

// Changes delivers one value per observed write and closes once the
// watcher is closed. A pending notification coalesces with later ones.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) run() {
	defer close(w.changes)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("[watch] %v", err)
		}
	}
}
