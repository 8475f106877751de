package gallery

import (
	"context"

	"classicphotos/internal/pending"
	"classicphotos/internal/photos"
	"classicphotos/internal/stagequeue"
)

// Status summarizes gallery progress.
type Status struct {
	Total     int
	States    map[photos.State]int
	InFlight  map[pending.Phase]int
	Visible   []int
	Dragging  bool
	Reloads   int
	Fetch     stagequeue.Stats
	Transform stagequeue.Stats
}

// Done reports how many records reached a terminal state.
func (s Status) Done() int {
	return s.States[photos.StateFiltered] + s.States[photos.StateFailed]
}

// Status returns a consistent snapshot taken on the dispatch loop.
func (g *Gallery) Status(ctx context.Context) (Status, error) {
	var status Status
	err := g.do(ctx, func() {
		status = Status{
			Total:     len(g.records),
			States:    make(map[photos.State]int, 4),
			InFlight:  g.ops.InFlight(),
			Visible:   append([]int(nil), g.visible...),
			Dragging:  g.dragging,
			Reloads:   g.reloads,
			Fetch:     g.fetchQ.Stats(),
			Transform: g.transformQ.Stats(),
		}
		for _, state := range photos.AllStates() {
			status.States[state] = 0
		}
		for _, record := range g.records {
			status.States[record.State()]++
		}
	})
	return status, err
}
