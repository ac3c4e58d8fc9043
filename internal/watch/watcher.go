// Package watch re-reads an HTML form file whenever it changes on disk and
// reports which controls changed.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/acptdev/condrules/internal/htmlform"
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long the file must stay quiet before it is re-read.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithLogger sets the watcher's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher monitors one HTML file. It watches the file's directory so atomic
// saves (write to temp file, rename over) are seen.
type Watcher struct {
	path     string
	settle   time.Duration
	logger   zerolog.Logger
	onChange func([]Change)

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu   sync.Mutex
	last *htmlform.Document
}

// NewWatcher creates a Watcher for path. onChange receives the changed
// controls after every re-read that found at least one.
func NewWatcher(path string, onChange func([]Change), opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		settle:   100 * time.Millisecond,
		logger:   zerolog.Nop(),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start parses the file once and begins watching.
func (w *Watcher) Start() error {
	doc, err := parseFile(w.path)
	if err != nil {
		return fmt.Errorf("watch: initial parse: %w", err)
	}
	w.mu.Lock()
	w.last = doc
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create fsnotify: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch: watch %s: %w", dir, err)
	}
	w.fsWatcher = fsw

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends watching and waits for the loop to exit. Safe to call twice.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		err := w.fsWatcher.Close()
		w.fsWatcher = nil
		return err
	}
	return nil
}

// Current returns the most recent successful parse.
func (w *Watcher) Current() *htmlform.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	settle := time.NewTimer(w.settle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				settle.Reset(w.settle)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")

		case <-settle.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	next, err := parseFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// mid-rename; the Create event that follows triggers another reload
			return
		}
		w.logger.Warn().Err(err).Str("path", w.path).Msg("failed to re-read form")
		return
	}

	w.mu.Lock()
	prev := w.last
	w.last = next
	w.mu.Unlock()

	changes := Diff(prev, next)
	if len(changes) == 0 {
		w.logger.Debug().Str("path", w.path).Msg("form unchanged")
		return
	}
	w.logger.Info().Str("path", w.path).Int("changes", len(changes)).Msg("form changed")
	w.onChange(changes)
}

func parseFile(path string) (*htmlform.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return htmlform.Parse(f)
}
