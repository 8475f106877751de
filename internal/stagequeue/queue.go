package stagequeue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"classicphotos/internal/logging"
	"classicphotos/internal/services"
)

// ErrStopped is returned when a job is enqueued after Stop.
var ErrStopped = errors.New("stage queue is stopped")

// Job is a unit of work a Queue executes. Run receives the queue's lifetime
// context, which is cancelled by Stop.
type Job interface {
	ID() string
	Run(ctx context.Context) error
}

// Stats is a point-in-time view of a queue.
type Stats struct {
	Name        string
	Concurrency int
	Pending     int
	Running     int
	Suspended   bool
	Completed   int64
	Failed      int64
	Canceled    int64
}

// Queue is a bounded-concurrency FIFO executor with suspend and resume.
type Queue struct {
	name        string
	concurrency int
	logger      *slog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	pending   []Job
	running   int
	suspended bool
	started   bool
	stopped   bool
	completed int64
	failed    int64
	canceled  int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a queue. Concurrency below one is raised to one.
func New(name string, concurrency int, logger *slog.Logger) *Queue {
	logger = logging.NewComponentLogger(logger, "stagequeue").With(logging.Stage(name))
	if concurrency <= 0 {
		logger.Warn("invalid concurrency specified, using default",
			logging.Int("specified", concurrency),
			logging.Int("default", 1),
		)
		concurrency = 1
	}
	q := &Queue{
		name:        name,
		concurrency: concurrency,
		logger:      logger,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue's stage name.
func (q *Queue) Name() string { return q.name }

// Start launches the worker pool. Cancelling ctx stops the queue. Calling
// Start more than once has no further effect.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrStopped
	}
	if q.started {
		q.mu.Unlock()
		return nil
	}
	q.started = true
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(q.concurrency)
	q.mu.Unlock()

	for i := 0; i < q.concurrency; i++ {
		go q.worker(i)
	}
	context.AfterFunc(q.ctx, q.halt)

	q.logger.Debug("stage queue started", logging.Int("workers", q.concurrency))
	return nil
}

// Enqueue appends job to the queue.
func (q *Queue) Enqueue(job Job) error {
	if job == nil {
		return fmt.Errorf("enqueue on %s: nil job", q.name)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrStopped
	}
	q.pending = append(q.pending, job)
	q.cond.Signal()
	q.logger.Debug("job enqueued",
		logging.String(logging.FieldCorrelationID, job.ID()),
		logging.Int("queue_len", len(q.pending)),
	)
	return nil
}

// Suspend stops workers from dequeuing. Running jobs are not interrupted.
func (q *Queue) Suspend() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.suspended = true
}

// Resume lets workers dequeue again.
func (q *Queue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.suspended {
		return
	}
	q.suspended = false
	q.cond.Broadcast()
}

// Suspended reports whether dequeuing is paused.
func (q *Queue) Suspended() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.suspended
}

// Stop discards pending jobs, cancels the queue context, and waits for
// running jobs to return. It is safe to call more than once.
func (q *Queue) Stop() {
	q.halt()
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
}

func (q *Queue) halt() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.stopped = true
	if dropped := len(q.pending); dropped > 0 {
		q.logger.Debug("discarding pending jobs", logging.Int("count", dropped))
	}
	q.pending = nil
	q.cond.Broadcast()
}

// Stats returns the queue's current counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Name:        q.name,
		Concurrency: q.concurrency,
		Pending:     len(q.pending),
		Running:     q.running,
		Suspended:   q.suspended,
		Completed:   q.completed,
		Failed:      q.failed,
		Canceled:    q.canceled,
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for {
		job, ok := q.next()
		if !ok {
			return
		}
		err := q.execute(id, job)
		q.finish(err)
	}
}

func (q *Queue) next() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.stopped && (q.suspended || len(q.pending) == 0) {
		q.cond.Wait()
	}
	if q.stopped {
		return nil, false
	}
	job := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.running++
	return job, true
}

func (q *Queue) execute(workerID int, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID(), r)
			q.logger.Error("job panicked",
				logging.Int("worker", workerID),
				logging.String(logging.FieldCorrelationID, job.ID()),
				logging.Any("panic", r),
			)
		}
	}()
	return job.Run(q.ctx)
}

func (q *Queue) finish(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running--
	switch {
	case err == nil:
		q.completed++
	case services.KindOf(err) == services.KindCanceled:
		q.canceled++
	default:
		q.failed++
	}
}
