// Package workflow runs casting jobs in the background.
//
// Runner processes one job end to end: it loads the job, runs the sourcing
// pipeline and the optimizer, then writes the job back as completed or failed.
// Manager is the dispatcher: it polls for pending jobs (and wakes early when
// notified of a submission), runs up to a configured number concurrently, and
// detaches each run from shutdown cancellation so a started job always
// finishes and records its outcome.
package workflow
