package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"classicphotos/internal/logging"
	"classicphotos/internal/photos"
	"classicphotos/internal/services"
)

// Kind names the stage a task performs.
type Kind string

const (
	KindFetch     Kind = "fetch"
	KindTransform Kind = "transform"
)

// Outcome describes what a finished task did to its record.
type Outcome string

const (
	OutcomePending    Outcome = ""
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeFailed     Outcome = "failed"
	OutcomeFiltered   Outcome = "filtered"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeCanceled   Outcome = "canceled"
)

// Task is one cancellable stage for one record.
type Task struct {
	id     string
	kind   Kind
	record *photos.Record

	fetcher     Fetcher
	decoder     Decoder
	transformer Transformer

	ctx       context.Context
	cancelCtx context.CancelFunc
	cancelled atomic.Bool

	mu         sync.Mutex
	onComplete func()
	itemKey    string
	once       sync.Once
	outcome    Outcome

	logger *slog.Logger
}

// NewFetch builds a task that downloads and decodes record's source.
func NewFetch(record *photos.Record, fetcher Fetcher, decoder Decoder, logger *slog.Logger) *Task {
	t := newTask(KindFetch, record, logger)
	t.fetcher = fetcher
	t.decoder = decoder
	return t
}

// NewTransform builds a task that filters record's downloaded image.
func NewTransform(record *photos.Record, transformer Transformer, logger *slog.Logger) *Task {
	t := newTask(KindTransform, record, logger)
	t.transformer = transformer
	return t
}

func newTask(kind Kind, record *photos.Record, logger *slog.Logger) *Task {
	if logger == nil {
		logger = logging.NewNop()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Task{
		id:        id,
		kind:      kind,
		record:    record,
		ctx:       ctx,
		cancelCtx: cancel,
		logger: logger.With(
			logging.String(logging.FieldCorrelationID, id),
			logging.Stage(string(kind)),
			logging.String(logging.FieldItemName, record.Name),
		),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Kind returns the stage this task performs.
func (t *Task) Kind() Kind { return t.kind }

// Record returns the record the task operates on.
func (t *Task) Record() *photos.Record { return t.record }

// Outcome reports what the task did. It is OutcomePending until Run returns.
func (t *Task) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// OnComplete registers the completion callback. It must be set before the
// task is handed to a queue.
func (t *Task) OnComplete(fn func()) {
	t.mu.Lock()
	t.onComplete = fn
	t.mu.Unlock()
}

// SetItemKey records the scheduler key the task runs for. Run exposes it on
// the context handed to the fetcher and transformer.
func (t *Task) SetItemKey(key string) {
	t.mu.Lock()
	t.itemKey = key
	t.mu.Unlock()
}

// Cancel requests cooperative cancellation. It is safe to call from any
// goroutine and more than once.
func (t *Task) Cancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		t.cancelCtx()
		t.logger.Debug("task cancelled", logging.String(logging.FieldEventType, "task_cancelled"))
	}
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Run executes the stage. ctx is the queue's lifetime context; the task's own
// cancellation is merged into it. The returned error is nil on success and
// carries a services marker otherwise.
func (t *Task) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.ctx, cancel)
	defer stop()

	t.mu.Lock()
	itemKey := t.itemKey
	t.mu.Unlock()
	runCtx = services.WithItemKey(runCtx, itemKey)
	runCtx = services.WithStage(runCtx, string(t.kind))
	runCtx = services.WithRequestID(runCtx, t.id)

	var err error
	switch t.kind {
	case KindFetch:
		err = t.runFetch(runCtx)
	case KindTransform:
		err = t.runTransform(runCtx)
	default:
		err = services.Wrap(services.ErrValidation, string(t.kind), "run", "Unknown task kind", nil)
	}
	if services.KindOf(err) == services.KindCanceled {
		t.setOutcome(OutcomeCanceled)
		return err
	}
	t.signal()
	return err
}

func (t *Task) runFetch(ctx context.Context) error {
	if t.stopped(ctx) {
		return t.canceled("before fetch")
	}
	data, fetchErr := t.fetcher.Fetch(ctx, t.record.Source)
	if t.stopped(ctx) {
		return t.canceled("after fetch")
	}
	if fetchErr != nil {
		err := services.Wrap(services.ErrFetch, string(KindFetch), "fetch source", "Failed to download photo", fetchErr)
		t.fail(err)
		return err
	}
	img, decodeErr := t.decoder.Decode(data)
	if t.stopped(ctx) {
		return t.canceled("after decode")
	}
	if decodeErr != nil {
		err := services.Wrap(services.ErrDecode, string(KindFetch), "decode payload", "Downloaded data is not an image", decodeErr)
		t.fail(err)
		return err
	}
	if t.record.MarkDownloaded(img) {
		t.setOutcome(OutcomeDownloaded)
	} else {
		t.setOutcome(OutcomeUnchanged)
	}
	t.logger.Debug("photo downloaded",
		logging.String(logging.FieldEventType, "fetch_complete"),
		logging.Int("bytes", len(data)),
	)
	return nil
}

func (t *Task) runTransform(ctx context.Context) error {
	if t.stopped(ctx) {
		return t.canceled("before transform")
	}
	if t.record.State() != photos.StateDownloaded {
		t.setOutcome(OutcomeUnchanged)
		return nil
	}
	filtered, transformErr := t.transformer.Transform(ctx, t.record.Payload())
	if t.stopped(ctx) {
		return t.canceled("after transform")
	}
	if transformErr != nil {
		err := services.Wrap(services.ErrTransform, string(KindTransform), "apply filter", "Filter failed", transformErr)
		t.setOutcome(OutcomeUnchanged)
		t.logger.Debug("transform failed; photo left unfiltered",
			logging.String(logging.FieldEventType, "transform_failed"),
			logging.Error(err),
		)
		return err
	}
	if t.record.MarkFiltered(filtered) {
		t.setOutcome(OutcomeFiltered)
	} else {
		t.setOutcome(OutcomeUnchanged)
	}
	t.logger.Debug("photo filtered", logging.String(logging.FieldEventType, "transform_complete"))
	return nil
}

func (t *Task) fail(err error) {
	if services.IsTerminal(err) && t.record.MarkFailed() {
		t.setOutcome(OutcomeFailed)
	} else {
		t.setOutcome(OutcomeUnchanged)
	}
	logging.WarnWithContext(t.logger, "photo failed to load", "fetch_failed",
		logging.String(logging.FieldErrorHint, "check the catalog URL is reachable and points at an image"),
		logging.Error(err),
	)
}

// stopped reports whether the task was cancelled or its queue is shutting down.
func (t *Task) stopped(ctx context.Context) bool {
	return t.Cancelled() || ctx.Err() != nil
}

func (t *Task) canceled(checkpoint string) error {
	return services.Wrap(services.ErrCanceled, string(t.kind), checkpoint, "Task cancelled", nil)
}

func (t *Task) setOutcome(outcome Outcome) {
	t.mu.Lock()
	t.outcome = outcome
	t.mu.Unlock()
}

// signal invokes the completion callback at most once, and never after Cancel.
func (t *Task) signal() {
	t.once.Do(func() {
		if t.Cancelled() {
			return
		}
		t.mu.Lock()
		fn := t.onComplete
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// String implements fmt.Stringer for log output.
func (t *Task) String() string {
	return fmt.Sprintf("%s(%s)", t.kind, t.record.Name)
}
