package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"classicphotos/internal/dispatch"
	"classicphotos/internal/logging"
	"classicphotos/internal/pending"
	"classicphotos/internal/photos"
	"classicphotos/internal/stagequeue"
	"classicphotos/internal/task"
)

const idlePollInterval = 10 * time.Millisecond

// ErrNotStarted is returned when a gallery is used before Start.
var ErrNotStarted = errors.New("gallery not started")

// Row is what a list cell shows for one record.
type Row struct {
	Key     int
	Name    string
	Source  string
	State   photos.State
	Phase   pending.Phase
	Payload image.Image
}

// Config wires a Gallery.
type Config struct {
	Records              []*photos.Record
	Fetcher              task.Fetcher
	Decoder              task.Decoder
	Transformer          task.Transformer
	FetchConcurrency     int
	TransformConcurrency int
	StageOverrides       map[string]string
	// OnReload is called on the dispatch loop whenever a visible row's
	// stage completes.
	OnReload func(Row)
	Logger   *slog.Logger
}

// Gallery is the caller side of the scheduler.
type Gallery struct {
	records    []*photos.Record
	loop       *dispatch.Loop
	fetchQ     *stagequeue.Queue
	transformQ *stagequeue.Queue
	ops        *pending.Operations[int]
	onReload   func(Row)
	logger     *slog.Logger

	lifecycle sync.Mutex
	started   bool
	closed    bool
	cancel    context.CancelFunc

	// Loop-owned.
	visible    []int
	visibleSet map[int]struct{}
	dragging   bool
	reloads    int
}

// New constructs a gallery. Call Start before using it.
func New(cfg Config) (*Gallery, error) {
	if cfg.Fetcher == nil || cfg.Decoder == nil || cfg.Transformer == nil {
		return nil, fmt.Errorf("gallery: fetcher, decoder, and transformer are required")
	}
	logger := logging.NewComponentLogger(cfg.Logger, "gallery")
	loop := dispatch.New(cfg.Logger)
	fetchQ := stagequeue.New(string(task.KindFetch), cfg.FetchConcurrency, cfg.Logger)
	transformQ := stagequeue.New(string(task.KindTransform), cfg.TransformConcurrency, cfg.Logger)
	ops, err := pending.New[int](pending.Config{
		FetchQueue:     fetchQ,
		TransformQueue: transformQ,
		Dispatcher:     loop,
		Fetcher:        cfg.Fetcher,
		Decoder:        cfg.Decoder,
		Transformer:    cfg.Transformer,
		Logger:         cfg.Logger,
		StageOverrides: cfg.StageOverrides,
	})
	if err != nil {
		return nil, err
	}
	return &Gallery{
		records:    cfg.Records,
		loop:       loop,
		fetchQ:     fetchQ,
		transformQ: transformQ,
		ops:        ops,
		onReload:   cfg.OnReload,
		logger:     logger,
		visibleSet: make(map[int]struct{}),
	}, nil
}

// Start launches the stage queues and the dispatch loop.
func (g *Gallery) Start(ctx context.Context) error {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	if g.closed {
		return dispatch.ErrClosed
	}
	if g.started {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := g.fetchQ.Start(ctx); err != nil {
		cancel()
		return err
	}
	if err := g.transformQ.Start(ctx); err != nil {
		cancel()
		return err
	}
	go func() {
		if err := g.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.logger.Warn("dispatch loop exited", logging.Error(err))
		}
	}()
	g.started = true
	g.cancel = cancel
	g.logger.Debug("gallery started", logging.Int("records", len(g.records)))
	return nil
}

// Close cancels all work, stops the queues, and shuts the loop down.
func (g *Gallery) Close() {
	g.lifecycle.Lock()
	if g.closed {
		g.lifecycle.Unlock()
		return
	}
	g.closed = true
	cancel := g.cancel
	g.lifecycle.Unlock()

	g.ops.CancelAll()
	g.fetchQ.Stop()
	g.transformQ.Stop()
	if cancel != nil {
		cancel()
	}
	g.loop.Close()
	if cancel != nil {
		<-g.loop.Done()
	}
}

// Len returns the number of rows.
func (g *Gallery) Len() int { return len(g.records) }

// Render returns the row for key and, unless a drag is in progress, makes
// sure the row's next stage is running.
func (g *Gallery) Render(ctx context.Context, key int) (Row, error) {
	var (
		row Row
		err error
	)
	if doErr := g.do(ctx, func() {
		if !g.validKey(key) {
			err = fmt.Errorf("gallery: row %d out of range", key)
			return
		}
		if !g.dragging {
			g.start(key)
		}
		row = g.row(key)
	}); doErr != nil {
		return Row{}, doErr
	}
	return row, err
}

// SetVisible records which rows are on screen. Outside a drag it cancels work
// for rows that left the screen and starts work for rows that arrived.
func (g *Gallery) SetVisible(ctx context.Context, keys []int) error {
	return g.do(ctx, func() {
		g.visible = g.visible[:0]
		clear(g.visibleSet)
		for _, key := range keys {
			if !g.validKey(key) {
				continue
			}
			if _, dup := g.visibleSet[key]; dup {
				continue
			}
			g.visibleSet[key] = struct{}{}
			g.visible = append(g.visible, key)
		}
		if !g.dragging {
			g.loadVisible()
		}
	})
}

// BeginDrag pauses both stage queues and stops rendering from starting work.
func (g *Gallery) BeginDrag(ctx context.Context) error {
	return g.do(ctx, func() {
		if g.dragging {
			return
		}
		g.dragging = true
		g.ops.SuspendAll()
	})
}

// EndDrag resumes the queues and loads whatever is now visible.
func (g *Gallery) EndDrag(ctx context.Context) error {
	return g.do(ctx, func() {
		if !g.dragging {
			return
		}
		g.dragging = false
		g.ops.ResumeAll()
		g.loadVisible()
	})
}

// WaitIdle blocks until no work is tracked or ctx is done.
func (g *Gallery) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()
	for {
		idle := false
		if err := g.do(ctx, func() { idle = g.ops.Len() == 0 }); err != nil {
			return err
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Rows returns every row in key order.
func (g *Gallery) Rows() []Row {
	rows := make([]Row, len(g.records))
	for key := range g.records {
		rows[key] = g.row(key)
	}
	return rows
}

func (g *Gallery) do(ctx context.Context, fn func()) error {
	g.lifecycle.Lock()
	started, closed := g.started, g.closed
	g.lifecycle.Unlock()
	if closed {
		return dispatch.ErrClosed
	}
	if !started {
		return ErrNotStarted
	}
	return g.loop.Do(ctx, fn)
}

func (g *Gallery) validKey(key int) bool {
	return key >= 0 && key < len(g.records)
}

func (g *Gallery) row(key int) Row {
	snap := g.records[key].Snapshot()
	phase, _ := g.ops.Tracked(key)
	return Row{
		Key:     key,
		Name:    snap.Name,
		Source:  snap.Source,
		State:   snap.State,
		Phase:   phase,
		Payload: snap.Payload,
	}
}

// loadVisible runs on the loop.
func (g *Gallery) loadVisible() {
	for _, key := range g.ops.Reconcile(g.visible) {
		g.start(key)
	}
}

// start runs on the loop.
func (g *Gallery) start(key int) {
	record := g.records[key]
	before := record.State()
	phase, err := g.ops.StartOperation(record, key, func() { g.reload(key, before) })
	if err != nil {
		if !errors.Is(err, stagequeue.ErrStopped) {
			g.logger.Warn("failed to start row",
				logging.ItemKey(key),
				logging.Error(err),
				logging.String(logging.FieldEventType, "row_start_failed"),
			)
		}
		return
	}
	if phase != pending.PhaseNone {
		g.logger.Debug("row started",
			logging.ItemKey(key),
			logging.Stage(string(phase)),
		)
	}
}

// reload runs on the loop when a row's stage completes.
func (g *Gallery) reload(key int, before photos.State) {
	g.reloads++
	if _, ok := g.visibleSet[key]; !ok {
		return
	}
	row := g.row(key)
	if g.onReload != nil {
		g.onReload(row)
	}
	if row.State != before && !g.dragging {
		g.start(key)
	}
}
