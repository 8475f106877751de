// Package pending tracks which photo keys have work in flight and decides
// what runs next.
//
// Operations keeps a single map from key to the one task currently working on
// it, tagged with the stage (fetching or transforming). StartOperation looks
// at a record's state and enqueues the next stage on the matching queue;
// Reconcile cancels work for keys that are no longer visible and reports which
// visible keys have nothing in flight. Completion callbacks are delivered on
// the caller's Dispatcher after the key has been released, so a callback may
// immediately start the next stage.
package pending
