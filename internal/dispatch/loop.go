package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"classicphotos/internal/logging"
)

// ErrClosed is returned when work is submitted to a loop that has stopped.
var ErrClosed = errors.New("dispatch loop is closed")

// Loop runs posted functions serially. The zero value is not usable; call New.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	running bool

	done     chan struct{}
	doneOnce sync.Once
}

// New constructs a loop. Call Run to start executing posted functions.
func New(logger *slog.Logger) *Loop {
	l := &Loop{
		logger: logging.NewComponentLogger(logger, "dispatch"),
		done:   make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post schedules fn to run on the loop and returns immediately. It reports
// false when the loop is closed and fn will never run.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from a function already running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted functions until ctx is cancelled or Close is called.
// Functions still queued at that point are dropped. Run may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.doneOnce.Do(func() { close(l.done) })
		return ErrClosed
	}
	if l.running {
		l.mu.Unlock()
		return errors.New("dispatch loop already running")
	}
	l.running = true
	l.mu.Unlock()

	defer l.doneOnce.Do(func() { close(l.done) })
	stop := context.AfterFunc(ctx, l.Close)
	defer stop()

	for {
		fn, ok := l.next()
		if !ok {
			return ctx.Err()
		}
		l.invoke(fn)
	}
}

// Close stops the loop after the function currently running returns.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if dropped := len(l.queue); dropped > 0 {
		l.logger.Debug("dropping queued callbacks", logging.Int("count", dropped))
	}
	l.queue = nil
	l.cond.Broadcast()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.closed && len(l.queue) == 0 {
		l.cond.Wait()
	}
	if l.closed {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panicked",
				logging.Any("panic", r),
				logging.String(logging.FieldEventType, "dispatch_panic"),
			)
		}
	}()
	fn()
}
