// Package watch re-lints the FAQ document whenever it changes on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"relayfaq/internal/document"
	"relayfaq/internal/lint"
)

// Result is delivered after each settled change to a watched file.
type Result struct {
	Path   string
	Doc    *document.Document
	Issues []lint.Issue
	Err    error
}

// Stats tracks watcher activity.
type Stats struct {
	FilesModified int
	LintsRun      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// Watcher monitors a directory of markdown files and re-lints each file
// after its writes settle. Changes arriving faster than the debounce
// window are coalesced into one lint run.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	debounceDur time.Duration
	debounceMap map[string]time.Time
	results     chan Result
	logger      *zap.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a watcher over dir. Results are delivered on Results().
func New(dir string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		watcher:     fw,
		dir:         dir,
		debounceDur: debounce,
		debounceMap: make(map[string]time.Time),
		results:     make(chan Result, 16),
		logger:      logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Results returns the channel lint results are delivered on.
func (w *Watcher) Results() <-chan Result {
	return w.results
}

// Start begins watching. Non-blocking; the event loop runs in a
// goroutine until Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.logger.Warn("failed to create watch dir", zap.String("dir", w.dir), zap.Error(err))
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.logger.Warn("initial watch failed", zap.String("dir", w.dir), zap.Error(err))
	} else {
		w.logger.Info("watching directory", zap.String("dir", w.dir))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
}

// ReadStats returns a snapshot of watcher activity.
func (w *Watcher) ReadStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
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
			w.logger.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".md") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.logger.Debug("document changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.stats.FilesModified++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processSettled lints files whose last event was longer ago than the
// debounce window.
func (w *Watcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, last := range w.debounceMap {
		if now.Sub(last) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.lintFile(path)
	}
}

func (w *Watcher) lintFile(path string) {
	res := Result{Path: filepath.Clean(path)}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
	} else if doc, err := document.Parse(src); err != nil {
		res.Err = err
	} else {
		res.Doc = doc
		res.Issues = lint.Run(doc)
		if err := lint.CheckRoundTrip(src); err != nil {
			res.Issues = append(res.Issues, lint.Issue{
				Rule: lint.RuleRoundTrip, File: path, Line: 1, Message: err.Error(),
			})
		}
	}

	w.mu.Lock()
	w.stats.LintsRun++
	if res.Err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	w.logger.Info("document linted",
		zap.String("path", res.Path),
		zap.Int("issues", len(res.Issues)),
		zap.Error(res.Err))

	select {
	case w.results <- res:
	default:
		// Drop rather than block the event loop when no one is reading.
	}
}
