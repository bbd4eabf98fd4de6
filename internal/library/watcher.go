package library

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
)

// DefaultSettle is how long a cover file must stay quiet before it is read.
const DefaultSettle = 150 * time.Millisecond

// CoverWatcher imports "<id>.<ext>" images written into a directory.
type CoverWatcher struct {
	lib     *Library
	dir     string
	settle  time.Duration
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	mu       sync.Mutex
	timers   map[string]*time.Timer
	onChange func(id models.BookID, err error)

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewCoverWatcher watches dir for cover files belonging to lib.
func NewCoverWatcher(lib *Library, dir string) (*CoverWatcher, error) {
	if dir == "" {
		return nil, errors.New("cover directory cannot be empty")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	return &CoverWatcher{
		lib:     lib,
		dir:     filepath.Clean(dir),
		settle:  DefaultSettle,
		watcher: w,
		logger:  logging.Component("cover-watcher").With().Str("dir", dir).Logger(),
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

// SetSettle overrides the quiet period. Call before Start.
func (w *CoverWatcher) SetSettle(d time.Duration) {
	if d >= 0 {
		w.settle = d
	}
}

// OnChange registers a callback run after each import attempt. Call before Start.
func (w *CoverWatcher) OnChange(fn func(id models.BookID, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start runs the event loop until ctx is done or Close is called.
func (w *CoverWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

func (w *CoverWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if _, err := CoverFileID(event.Name); err != nil {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// schedule coalesces bursts of writes to one path into a single import.
func (w *CoverWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		onChange := w.onChange
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}

		id, err := w.lib.ImportCoverFile(ctx, path)
		if err != nil {
			w.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("failed to import cover")
		} else {
			w.logger.Info().Int64("book_id", int64(id)).Msg("cover updated from file")
		}
		if onChange != nil {
			onChange(id, err)
		}
	})
}

// Close stops the watcher. Pending imports are dropped.
func (w *CoverWatcher) Close() error {
	var closeErr error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		for path, timer := range w.timers {
			timer.Stop()
			delete(w.timers, path)
		}
		w.mu.Unlock()
		closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return closeErr
}
