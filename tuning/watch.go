package tuning

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must stay unchanged before it is reloaded
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a tuning file when it changes on disk.
// Each successful reload is sent on Files, each failure on Errors.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	Files  chan File
	Errors chan error

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches the directory of path, so editors replacing the file are seen.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		path:     path,
		debounce: debounce,
		watcher:  w,
		Files:    make(chan File, 4),
		Errors:   make(chan error, 4),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes Files and Errors
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Files)
		close(w.Errors)
		close(w.done)
	}()

	// loads once the file has been quiet for the debounce window
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			f, err := Load(w.path)
			if err != nil {
				w.send(nil, err)
				continue
			}
			w.send(&f, nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(nil, err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) send(f *File, err error) {
	if f != nil {
		select {
		case w.Files <- *f:
		case <-w.closeCh:
		}
		return
	}
	select {
	case w.Errors <- err:
	case <-w.closeCh:
	}
}
