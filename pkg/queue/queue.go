// Package queue provides a rate-limited FIFO dispatch queue for outbound
// ledger reads. It bounds how many tasks are in flight at once, spaces
// consecutive task starts, and retries throttled tasks once after a fixed
// backoff. The queue is an explicitly constructed service instance so tests
// can inject their own pacing.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxConcurrent = 5
	DefaultMinDelay      = 100 * time.Millisecond
	DefaultRetryBackoff  = 2 * time.Second
)

// ErrClosed is returned by Submit after the queue's context has been
// cancelled.
var ErrClosed = errors.New("request queue closed")

// Throttler is implemented by errors that indicate the remote service
// rejected the call for rate-limiting reasons. Only these errors are retried.
type Throttler interface {
	Throttle() bool
}

// IsThrottle reports whether err signals a throttling response.
func IsThrottle(err error) bool {
	var t Throttler
	return errors.As(err, &t) && t.Throttle()
}

// Task is an arbitrary asynchronous read operation.
type Task func(ctx context.Context) (interface{}, error)

// Result carries a finished task's outcome back to the submitter.
type Result struct {
	Value interface{}
	Err   error
}

type queued struct {
	ctx  context.Context
	task Task
	done chan Result
}

// Queue serializes task starts (FIFO, spaced by at least the configured
// minimum delay) while allowing up to MaxConcurrent tasks in flight.
type Queue struct {
	maxConcurrent int
	retryBackoff  time.Duration
	limiter       *rate.Limiter
	sleep         func(ctx context.Context, d time.Duration) error
	log           *slog.Logger

	mu      sync.Mutex
	pending []queued
	closed  bool
	wake    chan struct{}
	sem     chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxConcurrent bounds the number of tasks in flight simultaneously.
func WithMaxConcurrent(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxConcurrent = n
		}
	}
}

// WithMinDelay sets the minimum spacing between consecutive task starts.
func WithMinDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetryBackoff sets the wait before the single retry of a throttled task.
func WithRetryBackoff(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.retryBackoff = d
		}
	}
}

// WithSleep replaces the backoff sleeper, for deterministic tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(q *Queue) {
		if fn != nil {
			q.sleep = fn
		}
	}
}

// WithLogger sets the queue's logger.
func WithLogger(log *slog.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

// New creates a Queue and starts its dispatch loop. The loop runs until ctx
// is cancelled, after which Submit returns ErrClosed.
func New(ctx context.Context, opts ...Option) *Queue {
	q := &Queue{
		maxConcurrent: DefaultMaxConcurrent,
		retryBackoff:  DefaultRetryBackoff,
		limiter:       rate.NewLimiter(rate.Every(DefaultMinDelay), 1),
		sleep:         sleepCtx,
		log:           slog.Default(),
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.sem = make(chan struct{}, q.maxConcurrent)

	go q.dispatch(ctx)
	return q
}

// Submit enqueues a task and blocks until it completes (including the single
// throttle retry) or the supplied context is cancelled. Task starts are FIFO
// with respect to Submit order.
func (q *Queue) Submit(ctx context.Context, task Task) (interface{}, error) {
	item := queued{ctx: ctx, task: task, done: make(chan Result, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrClosed
	}
	q.pending = append(q.pending, item)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case res := <-item.done:
		return res.Value, res.Err
	case <-ctx.Done():
		// The task may still start and run; only the wait is abandoned.
		return nil, ctx.Err()
	}
}

// dispatch pops tasks in FIFO order, waiting for both a concurrency slot and
// the start-spacing limiter before launching each one. A free slot alone is
// not enough to start a task.
func (q *Queue) dispatch(ctx context.Context) {
	defer q.shutdown()
	for {
		item, ok := q.next(ctx)
		if !ok {
			return
		}

		select {
		case q.sem <- struct{}{}:
		case <-ctx.Done():
			q.drain(item)
			return
		}

		if err := q.limiter.Wait(ctx); err != nil {
			<-q.sem
			q.drain(item)
			return
		}

		go q.run(item)
	}
}

// next blocks until a queued task is available or ctx is cancelled.
func (q *Queue) next(ctx context.Context) (queued, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			item := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return queued{}, false
		}
	}
}

func (q *Queue) run(item queued) {
	defer func() { <-q.sem }()

	value, err := item.task(item.ctx)
	if err != nil && IsThrottle(err) {
		q.log.Warn("task throttled, retrying once", "backoff", q.retryBackoff)
		if serr := q.sleep(item.ctx, q.retryBackoff); serr != nil {
			item.done <- Result{Err: serr}
			return
		}
		value, err = item.task(item.ctx)
	}

	item.done <- Result{Value: value, Err: err}
}

// drain fails an already-dequeued task after shutdown.
func (q *Queue) drain(item queued) {
	item.done <- Result{Err: ErrClosed}
}

// shutdown marks the queue closed and fails everything still buffered, so no
// submitter is left waiting on a queue that will never start its task.
func (q *Queue) shutdown() {
	q.mu.Lock()
	q.closed = true
	rest := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, item := range rest {
		q.drain(item)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
