package configwatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a function whenever a single config file changes.
// It watches the parent directory so that files replaced by rename are still seen.
type Watcher struct {
	path     string
	dir      string
	debounce time.Duration
	onChange func(path string)

	watcher *fsnotify.Watcher
	mu      sync.RWMutex

	// Debounce tracking
	timer   *time.Timer
	timerMu sync.Mutex

	// Running state
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for path. onChange runs on its own goroutine after the file has
// been quiet for debounce.
func New(path string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:     absPath,
		dir:      filepath.Dir(absPath),
		debounce: debounce,
		onChange: onChange,
		watcher:  fsWatcher,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start adds the watch on the config directory and begins processing events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.eventLoop()

	log.Info().Str("path", w.path).Msg("Config watcher started")
	return nil
}

// Stop stops the watcher and discards any pending change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	w.watcher.Close()
	w.wg.Wait()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerMu.Unlock()

	log.Info().Str("path", w.path).Msg("Config watcher stopped")
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
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
			log.Error().Err(err).Msg("Config watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	log.Trace().Str("path", event.Name).Str("op", event.Op.String()).Msg("Config file event")
	w.schedule()
}

// schedule starts or resets the debounce timer.
func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.timerMu.Lock()
	w.timer = nil
	w.timerMu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	log.Debug().Str("path", w.path).Msg("Config file changed")
	w.onChange(w.path)
}
