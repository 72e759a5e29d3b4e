// Package watcher re-runs indexing when Go files of a project change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called once per burst of changes with the affected files,
// sorted and deduplicated. Calls never overlap.
type ChangeFunc func(ctx context.Context, files []string) error

// Config controls which directories are watched
type Config struct {
	IncludeVendor bool
	IncludeTests  bool
	Debounce      time.Duration
}

// Watcher watches every package directory below a root
type Watcher struct {
	root     string
	config   Config
	onChange ChangeFunc
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// New creates a watcher for root. Directories are registered immediately;
// events are only delivered while Run is active.
func New(root string, config Config, onChange ChangeFunc, logger *slog.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("change callback is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		config:   config,
		onChange: onChange,
		logger:   logger.With("root", root),
		fsw:      fsw,
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dirs returns the watched directories
func (w *Watcher) Dirs() []string {
	return w.fsw.WatchList()
}

// Run delivers debounced changes until ctx is cancelled. The underlying
// watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				pending[event.Name] = struct{}{}
				timer.Reset(w.config.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.Any("error", err))

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			clear(pending)
			slices.Sort(files)

			w.logger.Debug("change detected", slog.Int("files", len(files)))
			if err := w.onChange(ctx, files); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("change handler failed", slog.Any("error", err))
			}
		}
	}
}

// handle registers new directories and reports whether the event concerns
// a Go source file
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch directory", slog.String("dir", event.Name), slog.Any("error", err))
			}
			return false
		}
	}

	if !w.isSource(event.Name) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) isSource(path string) bool {
	if !strings.HasSuffix(path, ".go") {
		return false
	}
	if !w.config.IncludeTests && strings.HasSuffix(path, "_test.go") {
		return false
	}
	return true
}

// addTree watches dir and its subdirectories, applying the indexer's skip
// rules
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) skipDir(name string) bool {
	if !w.config.IncludeVendor && name == "vendor" {
		return true
	}
	return strings.HasPrefix(name, ".") || name == "testdata"
}
