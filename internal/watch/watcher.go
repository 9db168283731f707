// Package watch reloads files when they change on disk.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a single file and hands its new contents to a callback.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	onChange func(data []byte)
	logger   *slog.Logger

	done    chan struct{}
	stopped chan struct{}
	mu      sync.Mutex
	running bool
}

// NewFileWatcher creates a watcher for path. onChange receives the file
// contents after every write.
func NewFileWatcher(path string, onChange func(data []byte), logger *slog.Logger) (*FileWatcher, error) {
	if path == "" {
		return nil, errors.New("watch: empty path")
	}
	if onChange == nil {
		return nil, errors.New("watch: nil callback")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		filePath: path,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Path returns the watched file path.
func (fw *FileWatcher) Path() string {
	return fw.filePath
}

// Start begins watching the file for changes.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	// Watch the directory containing the file (editors often replace files on save)
	dir := filepath.Dir(fw.filePath)
	if err := fw.watcher.Add(dir); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go fw.watch()
	fw.logger.Debug("file watcher started", "path", fw.filePath)
	return nil
}

// watch is the main watch loop.
func (fw *FileWatcher) watch() {
	defer close(fw.stopped)
	filename := filepath.Base(fw.filePath)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.reload()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "path", fw.filePath, "error", err)

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) reload() {
	data, err := os.ReadFile(fw.filePath)
	if err != nil {
		fw.logger.Warn("failed to read changed file", "path", fw.filePath, "error", err)
		return
	}
	fw.logger.Debug("file changed", "path", fw.filePath, "bytes", len(data))
	fw.onChange(data)
}

// Stop stops the file watcher and waits for the watch loop to exit.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return fw.watcher.Close()
	}
	fw.running = false
	close(fw.done)
	fw.mu.Unlock()

	err := fw.watcher.Close()
	<-fw.stopped
	fw.logger.Debug("file watcher stopped", "path", fw.filePath)
	return err
}
