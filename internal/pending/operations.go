package pending

import (
	"fmt"
	"log/slog"
	"sync"

	"classicphotos/internal/logging"
	"classicphotos/internal/photos"
	"classicphotos/internal/stagequeue"
	"classicphotos/internal/task"
)

// Phase names the stage a tracked key is in.
type Phase string

const (
	PhaseNone         Phase = ""
	PhaseFetching     Phase = "fetching"
	PhaseTransforming Phase = "transforming"
)

// Dispatcher delivers completion callbacks to the caller's control context.
// Post reports false when fn will never run.
type Dispatcher interface {
	Post(fn func()) bool
}

// Queue is the subset of stagequeue.Queue the scheduler drives.
type Queue interface {
	Enqueue(job stagequeue.Job) error
	Suspend()
	Resume()
}

// Config wires an Operations to its collaborators.
type Config struct {
	FetchQueue     Queue
	TransformQueue Queue
	Dispatcher     Dispatcher
	Fetcher        task.Fetcher
	Decoder        task.Decoder
	Transformer    task.Transformer
	Logger         *slog.Logger
	// StageOverrides maps a stage name to a minimum log level for its tasks.
	StageOverrides map[string]string
}

type entry struct {
	phase Phase
	task  *task.Task
}

// Operations is the per-key scheduler.
type Operations[K comparable] struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	tracked map[K]entry
}

// New constructs a scheduler. FetchQueue, TransformQueue, and Dispatcher are required.
func New[K comparable](cfg Config) (*Operations[K], error) {
	if cfg.FetchQueue == nil || cfg.TransformQueue == nil {
		return nil, fmt.Errorf("pending: fetch and transform queues are required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("pending: dispatcher is required")
	}
	return &Operations[K]{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(cfg.Logger, "scheduler"),
		tracked: make(map[K]entry),
	}, nil
}

// StartOperation ensures work is progressing for key. A New record gets a
// fetch task, a Downloaded record gets a transform task, and anything else
// (or a key already tracked) is left alone. onComplete runs on the
// Dispatcher after the key has been released, and never for a cancelled task.
func (o *Operations[K]) StartOperation(record *photos.Record, key K, onComplete func()) (Phase, error) {
	if record == nil {
		return PhaseNone, fmt.Errorf("pending: nil record for key %v", key)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.tracked[key]; ok {
		return PhaseNone, nil
	}

	var (
		t     *task.Task
		phase Phase
		queue Queue
	)
	switch record.State() {
	case photos.StateNew:
		t = task.NewFetch(record, o.cfg.Fetcher, o.cfg.Decoder, o.taskLogger(key, task.KindFetch))
		phase, queue = PhaseFetching, o.cfg.FetchQueue
	case photos.StateDownloaded:
		t = task.NewTransform(record, o.cfg.Transformer, o.taskLogger(key, task.KindTransform))
		phase, queue = PhaseTransforming, o.cfg.TransformQueue
	default:
		return PhaseNone, nil
	}

	t.SetItemKey(fmt.Sprint(key))
	t.OnComplete(func() {
		deliver := func() {
			o.release(key, t)
			if onComplete != nil && !t.Cancelled() {
				onComplete()
			}
		}
		if !o.cfg.Dispatcher.Post(deliver) {
			o.release(key, t)
		}
	})

	o.tracked[key] = entry{phase: phase, task: t}
	if err := queue.Enqueue(t); err != nil {
		delete(o.tracked, key)
		return PhaseNone, fmt.Errorf("enqueue %s for %v: %w", phase, key, err)
	}
	o.logger.Debug("operation started",
		logging.ItemKey(key),
		logging.Stage(string(phase)),
		logging.String(logging.FieldCorrelationID, t.ID()),
	)
	return phase, nil
}

// Reconcile cancels and forgets every tracked key absent from visible, then
// returns the visible keys with nothing in flight, deduplicated, in the order
// given.
func (o *Operations[K]) Reconcile(visible []K) []K {
	want := make(map[K]struct{}, len(visible))
	for _, key := range visible {
		want[key] = struct{}{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	cancelled := 0
	for key, e := range o.tracked {
		if _, ok := want[key]; ok {
			continue
		}
		e.task.Cancel()
		delete(o.tracked, key)
		cancelled++
	}

	toStart := make([]K, 0, len(visible))
	seen := make(map[K]struct{}, len(visible))
	for _, key := range visible {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := o.tracked[key]; !ok {
			toStart = append(toStart, key)
		}
	}
	if cancelled > 0 {
		o.logger.Debug("reconciled visible keys",
			logging.Int("cancelled", cancelled),
			logging.Int("to_start", len(toStart)),
		)
	}
	return toStart
}

// SuspendAll pauses dequeuing on both stage queues.
func (o *Operations[K]) SuspendAll() {
	o.cfg.FetchQueue.Suspend()
	o.cfg.TransformQueue.Suspend()
}

// ResumeAll lets both stage queues dequeue again.
func (o *Operations[K]) ResumeAll() {
	o.cfg.FetchQueue.Resume()
	o.cfg.TransformQueue.Resume()
}

// Tracked reports the phase key is in, if any.
func (o *Operations[K]) Tracked(key K) (Phase, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.tracked[key]
	return e.phase, ok
}

// InFlight counts tracked keys per phase.
func (o *Operations[K]) InFlight() map[Phase]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	counts := map[Phase]int{PhaseFetching: 0, PhaseTransforming: 0}
	for _, e := range o.tracked {
		counts[e.phase]++
	}
	return counts
}

// Len returns the number of tracked keys.
func (o *Operations[K]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tracked)
}

// Cancel cancels and forgets key's task. It reports whether key was tracked.
func (o *Operations[K]) Cancel(key K) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.tracked[key]
	if !ok {
		return false
	}
	e.task.Cancel()
	delete(o.tracked, key)
	return true
}

// CancelAll cancels and forgets every tracked task.
func (o *Operations[K]) CancelAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for key, e := range o.tracked {
		e.task.Cancel()
		delete(o.tracked, key)
	}
}

// release drops key only while it still refers to t, so a late completion
// never evicts a newer task for the same key.
func (o *Operations[K]) release(key K, t *task.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.tracked[key]; ok && e.task == t {
		delete(o.tracked, key)
	}
}

func (o *Operations[K]) taskLogger(key K, kind task.Kind) *slog.Logger {
	logger := logging.ForStage(o.cfg.Logger, o.cfg.StageOverrides, string(kind))
	return logging.NewComponentLogger(logger, "task").With(logging.ItemKey(key))
}
