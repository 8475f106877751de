// Package stagequeue runs jobs in FIFO order on a fixed pool of workers.
//
// Each pipeline stage owns one Queue. Suspend stops workers from dequeuing new
// jobs while in-flight jobs run to completion; Resume lets them continue.
// Stop discards anything still pending and waits for running jobs to return.
package stagequeue
