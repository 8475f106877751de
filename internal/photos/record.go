package photos

import (
	"image"
	"net/url"
	"sync"
)

// Record is one unit of work: a named photo and its current rendering.
//
// Fields other than Name and Source are guarded by the record's lock; read
// them through Snapshot or the accessors.
type Record struct {
	Name   string
	Source *url.URL

	mu      sync.RWMutex
	state   State
	payload image.Image
}

// Snapshot is a consistent copy of a record's mutable fields.
type Snapshot struct {
	Name    string
	Source  string
	State   State
	Payload image.Image
}

// NewRecord returns a record in StateNew carrying the placeholder image.
func NewRecord(name string, source *url.URL) *Record {
	return &Record{
		Name:    name,
		Source:  source,
		state:   StateNew,
		payload: Placeholder(),
	}
}

// State returns the current lifecycle state.
func (r *Record) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Payload returns the best available rendering.
func (r *Record) Payload() image.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payload
}

// Snapshot returns the record's name, source, state, and payload read under one lock.
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		Name:    r.Name,
		State:   r.state,
		Payload: r.payload,
	}
	if r.Source != nil {
		snap.Source = r.Source.String()
	}
	return snap
}

// MarkDownloaded stores the decoded image and moves New to Downloaded.
func (r *Record) MarkDownloaded(img image.Image) bool {
	return r.transition(StateDownloaded, img)
}

// MarkFailed stores the failure image and moves New to Failed.
func (r *Record) MarkFailed() bool {
	return r.transition(StateFailed, FailurePlaceholder())
}

// MarkFiltered stores the transformed image and moves Downloaded to Filtered.
func (r *Record) MarkFiltered(img image.Image) bool {
	return r.transition(StateFiltered, img)
}

func (r *Record) transition(next State, payload image.Image) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CanTransition(next) {
		return false
	}
	r.state = next
	r.payload = payload
	return true
}
