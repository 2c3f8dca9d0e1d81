package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dotnet/docfx-sub027/internal/logfields"
)

const defaultDebounce = 500 * time.Millisecond

// FileWatcher watches a docset directory tree and calls onChange with the
// changed paths once events have been quiet for the debounce window.
type FileWatcher struct {
	root     string
	debounce time.Duration
	onChange func(ctx context.Context, changed []string)
	logger   *slog.Logger

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopChan chan struct{}
	done     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]struct{}
	signal  chan struct{}
}

// NewFileWatcher creates a watcher for root. A non-positive debounce uses
// the default.
func NewFileWatcher(root string, debounce time.Duration, onChange func(ctx context.Context, changed []string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve docset root: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &FileWatcher{
		root:     absRoot,
		debounce: debounce,
		onChange: onChange,
		logger:   slog.Default(),
		watcher:  watcher,
		stopChan: make(chan struct{}),
		pending:  make(map[string]struct{}),
		signal:   make(chan struct{}, 1),
	}, nil
}

// WithLogger sets a custom logger.
func (fw *FileWatcher) WithLogger(logger *slog.Logger) *FileWatcher {
	fw.logger = logger
	return fw
}

// Start registers every directory under root and begins delivering batches.
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := fw.addTree(fw.root); err != nil {
		return err
	}
	fw.logger.Info("Starting file watcher", logfields.Path(fw.root))

	fw.done.Add(2)
	go fw.watchLoop(ctx)
	go fw.batchLoop(ctx)
	return nil
}

// Stop closes the watcher and waits for its goroutines.
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		fw.logger.Info("Stopping file watcher")
		close(fw.stopChan)
		if err := fw.watcher.Close(); err != nil {
			fw.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	})
	fw.done.Wait()
}

// addTree watches dir and its subdirectories. fsnotify is not recursive.
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && skipDir(entry.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "_site"
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	defer fw.done.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopChan:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	rel, err := filepath.Rel(fw.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if skipDir(part) {
			return
		}
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addTree(event.Name); err != nil {
				fw.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
		}
	}

	fw.logger.Debug("File event", logfields.File(rel), slog.String("op", event.Op.String()))
	fw.mu.Lock()
	fw.pending[rel] = struct{}{}
	fw.mu.Unlock()

	select {
	case fw.signal <- struct{}{}:
	default:
	}
}

// batchLoop restarts the debounce timer on every event and delivers the
// accumulated paths when it fires.
func (fw *FileWatcher) batchLoop(ctx context.Context) {
	defer fw.done.Done()
	timer := time.NewTimer(fw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopChan:
			return
		case <-fw.signal:
			timer.Reset(fw.debounce)
		case <-timer.C:
			if changed := fw.drain(); len(changed) > 0 {
				fw.onChange(ctx, changed)
			}
		}
	}
}

func (fw *FileWatcher) drain() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	out := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		out = append(out, p)
	}
	clear(fw.pending)
	sort.Strings(out)
	return out
}
