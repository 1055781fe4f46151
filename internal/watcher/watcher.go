// Package watcher observes the dpm config directory and reports when the
// declared state changes. A change does not mutate the system: the callback
// is expected to recompute and display the pending reconcile plan, leaving
// the actual switch to an explicit user action.
package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the event bursts editors produce on save
// (write + chmod + rename) into a single callback.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a config directory for TOML changes.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()
	log      zerolog.Logger

	fs     *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher over dir. onChange runs after each debounced burst
// of config file changes.
func New(dir string, log zerolog.Logger, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}
	return &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		onChange: onChange,
		log:      log,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the filesystem watch is
// established; events are handled on a background goroutine until Stop.
func (w *Watcher) Start() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fs.Add(w.dir); err != nil {
		fs.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.fs = fs

	w.wg.Add(1)
	go w.run()

	w.log.Info().Str("dir", w.dir).Msg("watching config directory")
	return nil
}

// run consumes filesystem events, debouncing bursts into single callbacks.
func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("config change detected")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watch error")

		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevant filters for TOML writes; editors also touch swap and temp files
// that must not trigger reloads.
func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(filepath.Base(ev.Name), ".toml") {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	var err error
	if w.fs != nil {
		err = w.fs.Close()
	}
	w.wg.Wait()
	return err
}
