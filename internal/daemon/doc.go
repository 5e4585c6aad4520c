// Package daemon coordinates the long-running castosd process.
//
// It takes a flock-based single-instance lock on the data directory, logs
// preflight results, and supervises the job dispatcher and the HTTP API with a
// suture tree so a crashed service is restarted with backoff instead of
// taking the process down.
//
// Keep orchestration logic here: casting stages live in their own packages
// while the daemon focuses on startup, shutdown, and supervision.
package daemon
