package rsgrpc

import (
	"context"
	"errors"
	"sync"

	"shk.dev/rs/internal/logging"
)

// ProcessResult reports what a single drive of the Queue observed.
type ProcessResult int

const (
	// GotEvent means one completion event was dispatched to its tag.
	GotEvent ProcessResult = iota
	// Timeout means the deadline elapsed before any event arrived.
	Timeout
	// Shutdown means the queue has been shut down and fully drained.
	Shutdown
)

func (r ProcessResult) String() string {
	switch r {
	case GotEvent:
		return "got_event"
	case Timeout:
		return "timeout"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// ErrQueueShutDown is returned by Go when an operation is posted after
// Shutdown has been called.
var ErrQueueShutDown = errors.New("rsgrpc: completion queue is shut down")

// queueEvent is one (tag, success) completion delivered by a worker.
type queueEvent struct {
	tag uint64
	ok  bool
}

// Queue is the completion-queue realization the RPC call state machines are
// driven by. Workers posted with Go perform exactly one blocking transport
// operation each and report its outcome onto the shared event channel; tag
// callbacks run only from the goroutine that calls ProcessOne or
// ProcessAll, never from the workers themselves, so everything a tag
// callback touches is serialized without locking.
type Queue struct {
	mu          sync.Mutex
	handlers    map[uint64]func(success bool)
	nextTag     uint64
	outstanding int
	closed      bool

	events chan queueEvent
	log    *logging.Logger
}

// QueueOption configures a Queue at construction time.
type QueueOption func(*Queue)

// WithQueueLogger routes the queue's dispatch and shutdown reporting through
// log. A nil logger keeps the default, the process-wide logger from
// logging.L().
func WithQueueLogger(log *logging.Logger) QueueOption {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

// NewQueue allocates an empty completion queue ready to accept operations.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		handlers: make(map[uint64]func(bool)),
		events:   make(chan queueEvent, 16),
		log:      logging.L(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Register stores invoke under a fresh tag and returns the tag. The callback
// fires exactly once, from the driving goroutine, when the event posted for
// this tag is dispatched; dispatch releases the tag.
func (q *Queue) Register(invoke func(success bool)) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextTag++
	tag := q.nextTag
	q.handlers[tag] = invoke
	return tag
}

// Go launches fn on its own goroutine. fn performs one blocking transport
// operation and returns the tag that should be completed together with the
// outcome flag. Returns ErrQueueShutDown without launching anything if the
// queue has already been shut down.
func (q *Queue) Go(fn func() (tag uint64, ok bool)) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueShutDown
	}
	q.outstanding++
	q.mu.Unlock()

	go func() {
		tag, ok := fn()
		//1.- Deliver the completion before dropping the outstanding count, so
		// Shutdown never closes the channel underneath an in-flight send.
		q.events <- queueEvent{tag: tag, ok: ok}
		q.mu.Lock()
		q.outstanding--
		if q.closed && q.outstanding == 0 {
			close(q.events)
		}
		q.mu.Unlock()
	}()
	return nil
}

// ProcessOne blocks for one completion event and dispatches it. It returns
// Shutdown once the queue has been shut down and every posted operation has
// delivered its final event, or Timeout if ctx expires first.
func (q *Queue) ProcessOne(ctx context.Context) (ProcessResult, error) {
	select {
	case ev, open := <-q.events:
		if !open {
			return Shutdown, nil
		}
		q.dispatch(ev)
		return GotEvent, nil
	case <-ctx.Done():
		return Timeout, ctx.Err()
	}
}

// ProcessAll loops ProcessOne until the queue shuts down. It returns nil on
// a clean shutdown and the context error if ctx expires first.
func (q *Queue) ProcessAll(ctx context.Context) error {
	for {
		result, err := q.ProcessOne(ctx)
		switch result {
		case Shutdown:
			return nil
		case Timeout:
			return err
		}
	}
}

// Shutdown closes the intake side of the queue. Operations already posted
// still deliver their final event and can be drained with ProcessOne;
// posting new operations fails with ErrQueueShutDown.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.log.Debug("completion queue shutting down",
		logging.Int("outstanding", q.outstanding))
	if q.outstanding == 0 {
		close(q.events)
	}
}

// dispatch invokes and releases the tag named by ev. A tag that was already
// released is dropped; the transport owning the duplicate event is
// misbehaving and there is nothing safe to call.
func (q *Queue) dispatch(ev queueEvent) {
	q.mu.Lock()
	invoke := q.handlers[ev.tag]
	delete(q.handlers, ev.tag)
	q.mu.Unlock()
	if invoke == nil {
		q.log.Warn("completion event for unknown tag",
			logging.Int64("tag", int64(ev.tag)),
			logging.Bool("success", ev.ok))
		return
	}
	invoke(ev.ok)
}
