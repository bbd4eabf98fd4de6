// Package render produces cover thumbnails on a background goroutine.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/shelf/internal/covercache"
	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
)

// Worker errors.
var (
	ErrWorkerAlreadyRunning = errors.New("render worker already running")
	ErrWorkerStopped        = errors.New("render worker stopped")
)

const (
	// DefaultBoxWidth and DefaultBoxHeight bound thumbnails in presentation
	// pixels (one terminal cell is one pixel wide and two tall).
	DefaultBoxWidth  = 18
	DefaultBoxHeight = 24

	// DefaultDrainTimeout bounds how long a source switch waits for the queue.
	DefaultDrainTimeout = 2 * time.Second
)

// Source supplies raw cover bytes. ok is false when the record has no cover.
type Source interface {
	CoverData(ctx context.Context, id models.BookID) (data []byte, ok bool, err error)
}

// Notifier asks the presentation goroutine to repaint one item. It must be
// safe to call from the worker goroutine.
type Notifier interface {
	NotifyRendered(id models.BookID)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id models.BookID)

// NotifyRendered calls f(id).
func (f NotifierFunc) NotifyRendered(id models.BookID) { f(id) }

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithBox sets the thumbnail bounding box.
func WithBox(width, height int) WorkerOption {
	return func(w *Worker) {
		if width > 0 {
			w.boxWidth = width
		}
		if height > 0 {
			w.boxHeight = height
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

type sourceBox struct {
	src Source
}

// Worker consumes a Queue, decoding and scaling covers into a cache.
type Worker struct {
	queue     *Queue
	cache     covercache.Writer
	notifier  Notifier
	boxWidth  int
	boxHeight int
	logger    zerolog.Logger

	source    atomic.Pointer[sourceBox]
	cancelled atomic.Bool
	processed atomic.Int64

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewWorker creates a worker that writes into cache and reports through notifier.
func NewWorker(queue *Queue, cache covercache.Writer, notifier Notifier, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:     queue,
		cache:     cache,
		notifier:  notifier,
		boxWidth:  DefaultBoxWidth,
		boxHeight: DefaultBoxHeight,
		logger:    logging.Component("render-worker"),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Queue returns the queue the worker consumes.
func (w *Worker) Queue() *Queue { return w.queue }

// SetSource switches where cover bytes are read from.
func (w *Worker) SetSource(src Source) {
	if src == nil {
		w.source.Store(nil)
		return
	}
	w.source.Store(&sourceBox{src: src})
}

// SetCancelled toggles the cooperative cancellation flag. While set, requests
// are acknowledged without rendering.
func (w *Worker) SetCancelled(cancelled bool) {
	w.cancelled.Store(cancelled)
}

// Cancelled reports the cancellation flag.
func (w *Worker) Cancelled() bool {
	return w.cancelled.Load()
}

// Processed returns how many id requests have been acknowledged.
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

// Enqueue requests a render for id. It never blocks.
func (w *Worker) Enqueue(id models.BookID) {
	w.queue.Put(id)
}

// Drain waits up to timeout for outstanding requests to finish.
func (w *Worker) Drain(timeout time.Duration) error {
	return w.queue.Join(timeout)
}

// Start launches the worker goroutine. It does not block process exit.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrWorkerAlreadyRunning
	}
	select {
	case <-w.done:
		return ErrWorkerStopped
	default:
	}
	w.started = true

	w.logger.Debug().
		Int("box_width", w.boxWidth).
		Int("box_height", w.boxHeight).
		Msg("render worker starting")

	go w.run()
	return nil
}

// Running reports whether Start has been called and the loop has not exited.
func (w *Worker) Running() bool {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Shutdown sets the cancellation flag and sends the stop marker exactly once.
// It does not wait for the goroutine to exit; use Stopped for that.
func (w *Worker) Shutdown() {
	w.stopOnce.Do(func() {
		w.cancelled.Store(true)
		w.queue.PutStop()
	})
}

// Stopped is closed when the worker loop has returned.
func (w *Worker) Stopped() <-chan struct{} {
	return w.done
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		id, stop := w.queue.Get()
		if stop {
			w.queue.Done()
			w.logger.Debug().Int("abandoned", w.queue.Len()).Msg("render worker stopped")
			return
		}
		w.process(id)
		w.processed.Add(1)
		w.queue.Done()
	}
}

func (w *Worker) process(id models.BookID) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int64("book_id", int64(id)).
				Str("panic", fmt.Sprint(r)).
				Msg("cover render panicked")
		}
	}()

	if w.cancelled.Load() {
		return
	}

	box := w.source.Load()
	if box == nil || box.src == nil {
		return
	}

	data, ok, err := box.src.CoverData(context.Background(), id)
	if err != nil {
		w.logger.Warn().Err(err).Int64("book_id", int64(id)).Msg("failed to read cover data")
		return
	}
	if !ok {
		w.store(id, covercache.Absent())
		return
	}

	img, err := Decode(data)
	if err != nil {
		w.logger.Warn().Err(err).Int64("book_id", int64(id)).Msg("failed to decode cover")
		w.store(id, covercache.Absent())
		return
	}

	if w.cancelled.Load() {
		return
	}

	w.store(id, covercache.FromImage(Thumbnail(img, w.boxWidth, w.boxHeight)))
}

func (w *Worker) store(id models.BookID, value covercache.Value) {
	w.cache.Set(id, value)
	if w.notifier != nil {
		w.notifier.NotifyRendered(id)
	}
}
