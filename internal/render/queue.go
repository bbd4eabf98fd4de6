package render

import (
	"errors"
	"sync"
	"time"

	"github.com/tOgg1/shelf/internal/models"
)

// ErrDrainTimeout is returned by Join when outstanding work did not reach zero
// in time. It is recoverable: callers proceed with a possibly stale cache.
var ErrDrainTimeout = errors.New("waiting for render queue to drain timed out")

// request is one queue slot: a book id or the stop marker.
type request struct {
	id   models.BookID
	stop bool
}

// Queue is an unbounded FIFO of render requests with outstanding-work
// accounting. Put never blocks; Get blocks until a request is available.
// Every request returned by Get must be acknowledged with Done.
type Queue struct {
	mu         sync.Mutex
	ready      *sync.Cond
	items      []request
	unfinished int
	drained    chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{drained: make(chan struct{})}
	close(q.drained)
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Put enqueues a render request for id.
func (q *Queue) Put(id models.BookID) {
	q.push(request{id: id})
}

// PutStop enqueues the stop marker.
func (q *Queue) PutStop() {
	q.push(request{stop: true})
}

func (q *Queue) push(req request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 {
		q.drained = make(chan struct{})
	}
	q.unfinished++
	q.items = append(q.items, req)
	q.ready.Signal()
}

// Get removes and returns the oldest request, blocking while the queue is
// empty. stop is true when the request is the stop marker.
func (q *Queue) Get() (id models.BookID, stop bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.ready.Wait()
	}
	req := q.items[0]
	q.items[0] = request{}
	q.items = q.items[1:]
	return req.id, req.stop
}

// Done marks one request returned by Get as processed.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		panic("render: Queue.Done called more times than there were requests")
	}
	q.unfinished--
	if q.unfinished == 0 {
		close(q.drained)
	}
}

// Join blocks until every enqueued request has been acknowledged with Done,
// or returns ErrDrainTimeout once timeout elapses.
func (q *Queue) Join(timeout time.Duration) error {
	q.mu.Lock()
	if q.unfinished == 0 {
		q.mu.Unlock()
		return nil
	}
	drained := q.drained
	q.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-drained:
		return nil
	case <-timer.C:
		return ErrDrainTimeout
	}
}

// Len returns the number of requests waiting to be dequeued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Unfinished returns the number of enqueued requests not yet acknowledged.
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}
