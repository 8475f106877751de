// Package task implements the cancellable units of work the stage queues run.
//
// A Task performs exactly one stage (fetch or transform) for one photo record.
// Cancellation is cooperative: Cancel sets an atomic flag and cancels the
// task's context, and Run checks the flag before and after each blocking step.
// A cancelled task never mutates its record and never invokes its completion
// callback. A task that runs to the end mutates the record through the
// record's transition methods and then fires its completion callback exactly
// once.
package task
