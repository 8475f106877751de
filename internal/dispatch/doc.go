// Package dispatch provides Loop, a serial executor that owns caller-side state.
//
// Functions posted to a Loop run one at a time, in post order, on the
// goroutine that called Run. Completion callbacks from worker goroutines are
// marshalled onto the loop so the state they touch needs no further locking.
package dispatch
