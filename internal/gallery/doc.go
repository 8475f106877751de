// Package gallery drives the photo pipeline the way a scrolling list would.
//
// A Gallery owns the records, the two stage queues, the scheduler, and the
// dispatch loop all completion callbacks land on. Callers report which rows
// are visible and when a drag begins or ends; the gallery cancels work for
// rows that scrolled away, pauses the queues during a drag, and starts the
// next stage for a row each time its previous stage completes while it is
// still on screen.
//
// All mutable gallery state is touched only from the dispatch loop. Public
// methods marshal onto the loop and wait.
package gallery
