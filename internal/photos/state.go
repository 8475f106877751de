package photos

// State represents the lifecycle of a photo record.
type State string

const (
	StateNew        State = "new"
	StateDownloaded State = "downloaded"
	StateFiltered   State = "filtered"
	StateFailed     State = "failed"
)

var allStates = []State{
	StateNew,
	StateDownloaded,
	StateFiltered,
	StateFailed,
}

type stateTransition struct {
	from State
	to   State
}

var allowedTransitions = map[stateTransition]struct{}{
	{from: StateNew, to: StateDownloaded}:      {},
	{from: StateNew, to: StateFailed}:          {},
	{from: StateDownloaded, to: StateFiltered}: {},
}

// AllStates returns every state in lifecycle order.
func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// Terminal reports whether no further stage is ever scheduled from this state.
func (s State) Terminal() bool {
	return s == StateFiltered || s == StateFailed
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s State) CanTransition(next State) bool {
	_, ok := allowedTransitions[stateTransition{from: s, to: next}]
	return ok
}
