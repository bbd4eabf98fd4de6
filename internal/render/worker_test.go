package render

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/covercache"
	"github.com/tOgg1/shelf/internal/models"
)

type fakeSource struct {
	mu     sync.Mutex
	covers map[models.BookID][]byte
	errs   map[models.BookID]error
	panics map[models.BookID]bool
	gate   chan struct{}
	calls  map[models.BookID]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		covers: make(map[models.BookID][]byte),
		errs:   make(map[models.BookID]error),
		panics: make(map[models.BookID]bool),
		calls:  make(map[models.BookID]int),
	}
}

func (s *fakeSource) CoverData(_ context.Context, id models.BookID) ([]byte, bool, error) {
	s.mu.Lock()
	s.calls[id]++
	gate := s.gate
	data, ok := s.covers[id]
	err := s.errs[id]
	boom := s.panics[id]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if boom {
		panic("corrupt store")
	}
	if err != nil {
		return nil, false, err
	}
	return data, ok, nil
}

func (s *fakeSource) callCount(id models.BookID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

type notifications struct {
	ch chan models.BookID
}

func newNotifications() *notifications {
	return &notifications{ch: make(chan models.BookID, 64)}
}

func (n *notifications) NotifyRendered(id models.BookID) { n.ch <- id }

func (n *notifications) wait(t *testing.T) models.BookID {
	t.Helper()
	select {
	case id := <-n.ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for repaint notification")
		return 0
	}
}

func startWorker(t *testing.T, src Source, cache covercache.Writer, n Notifier) *Worker {
	t.Helper()
	w := NewWorker(NewQueue(), cache, n, WithBox(18, 24))
	w.SetSource(src)
	require.NoError(t, w.Start())
	t.Cleanup(w.Shutdown)
	return w
}

func TestWorkerRendersAndNotifies(t *testing.T) {
	src := newFakeSource()
	src.covers[1] = pngBytes(t, 90, 120)
	cache := covercache.New(10)
	n := newNotifications()
	w := startWorker(t, src, cache, n)

	w.Enqueue(1)
	require.Equal(t, models.BookID(1), n.wait(t))
	require.NoError(t, w.Drain(time.Second))

	got := cache.Get(1)
	require.Equal(t, covercache.KindImage, got.Kind())
	require.Equal(t, image.Rect(0, 0, 18, 24), got.Bounds())
	require.Equal(t, int64(1), w.Processed())
}

func TestWorkerStoresAbsentForMissingCover(t *testing.T) {
	src := newFakeSource()
	cache := covercache.New(10)
	n := newNotifications()
	w := startWorker(t, src, cache, n)

	w.Enqueue(5)
	require.Equal(t, models.BookID(5), n.wait(t))
	require.True(t, cache.Get(5).IsAbsent())
}

func TestWorkerSurvivesDecodeFailureAndPanics(t *testing.T) {
	src := newFakeSource()
	src.covers[1] = []byte("garbage")
	src.panics[2] = true
	src.covers[3] = pngBytes(t, 4, 4)
	cache := covercache.New(10)
	n := newNotifications()
	w := startWorker(t, src, cache, n)

	w.Enqueue(1)
	w.Enqueue(2)
	w.Enqueue(3)
	require.NoError(t, w.Drain(2*time.Second))

	require.True(t, cache.Get(1).IsAbsent())
	require.True(t, cache.Get(2).IsUnset())
	require.Equal(t, covercache.KindImage, cache.Get(3).Kind())
	require.True(t, w.Running())
	require.Equal(t, int64(3), w.Processed())
}

func TestWorkerStoresAbsentForOversizedCover(t *testing.T) {
	src := newFakeSource()
	src.covers[6] = withPNGSize(t, pngBytes(t, 2, 2), 50000, 50000)
	cache := covercache.New(10)
	n := newNotifications()
	w := startWorker(t, src, cache, n)

	w.Enqueue(6)
	require.Equal(t, models.BookID(6), n.wait(t))
	require.True(t, cache.Get(6).IsAbsent())
	require.True(t, w.Running())
}

func TestWorkerLogsStoreErrorsWithoutCaching(t *testing.T) {
	src := newFakeSource()
	src.errs[4] = errors.New("disk on fire")
	cache := covercache.New(10)
	w := startWorker(t, src, cache, newNotifications())

	w.Enqueue(4)
	require.NoError(t, w.Drain(time.Second))
	require.True(t, cache.Get(4).IsUnset())
}

func TestWorkerCancelledRequestsAreAcknowledged(t *testing.T) {
	src := newFakeSource()
	src.covers[1] = pngBytes(t, 4, 4)
	cache := covercache.New(10)
	w := startWorker(t, src, cache, newNotifications())

	w.SetCancelled(true)
	w.Enqueue(1)
	require.NoError(t, w.Drain(time.Second))
	require.True(t, cache.Get(1).IsUnset())
	require.Equal(t, 0, src.callCount(1))
	require.Equal(t, int64(1), w.Processed())

	w.SetCancelled(false)
	w.Enqueue(1)
	require.NoError(t, w.Drain(time.Second))
	require.Equal(t, covercache.KindImage, cache.Get(1).Kind())
}

func TestWorkerDuplicateRequestsYieldValidEntry(t *testing.T) {
	src := newFakeSource()
	src.covers[7] = pngBytes(t, 36, 48)
	cache := covercache.New(10)
	n := newNotifications()
	w := startWorker(t, src, cache, n)

	w.Enqueue(7)
	w.Enqueue(7)
	require.NoError(t, w.Drain(2*time.Second))

	require.Equal(t, covercache.KindImage, cache.Get(7).Kind())
	require.Equal(t, 2, src.callCount(7))
	require.True(t, w.Running())
}

func TestWorkerStopAbandonsQueuedRequests(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	src.covers[1] = pngBytes(t, 4, 4)
	src.covers[2] = pngBytes(t, 4, 4)
	cache := covercache.New(10)
	w := startWorker(t, src, cache, newNotifications())

	w.Enqueue(1)
	require.Eventually(t, func() bool { return src.callCount(1) == 1 }, time.Second, time.Millisecond)

	w.Shutdown()
	w.Shutdown()
	w.Enqueue(2)
	w.Enqueue(3)
	close(src.gate)

	select {
	case <-w.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	require.False(t, w.Running())
	require.Equal(t, int64(1), w.Processed())
	require.Equal(t, 2, w.Queue().Len())
	require.Equal(t, 0, src.callCount(2))
	// The in-flight request observed the cancellation flag before storing.
	require.True(t, cache.Get(1).IsUnset())
}

func TestWorkerDrainTimesOutWhenStuck(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	cache := covercache.New(10)
	w := startWorker(t, src, cache, newNotifications())
	t.Cleanup(func() { close(src.gate) })

	w.Enqueue(1)
	err := w.Drain(30 * time.Millisecond)
	require.ErrorIs(t, err, ErrDrainTimeout)
}

func TestWorkerStartTwice(t *testing.T) {
	w := NewWorker(NewQueue(), covercache.New(1), nil)
	require.False(t, w.Running())
	require.NoError(t, w.Start())
	require.ErrorIs(t, w.Start(), ErrWorkerAlreadyRunning)
	w.Shutdown()
	<-w.Stopped()
}

func TestWorkerWithoutSourceSkips(t *testing.T) {
	cache := covercache.New(4)
	w := NewWorker(NewQueue(), cache, NotifierFunc(func(models.BookID) {
		t.Error("no notification expected without a source")
	}))
	require.NoError(t, w.Start())
	t.Cleanup(w.Shutdown)

	w.Enqueue(1)
	require.NoError(t, w.Drain(time.Second))
	require.Equal(t, 0, cache.Len())
}
