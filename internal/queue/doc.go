// Package queue persists casting jobs in SQLite.
//
// The Store owns schema initialization, busy retries and the job status
// lifecycle. Status only moves forward: a job is created pending and is
// written once as completed or failed. Writes are conditional on the stored
// row still being pending, so a job deleted or finished elsewhere is never
// resurrected or regressed.
//
// Schema changes bump schemaVersion in schema.go; users clear the database to
// adopt the new schema.
package queue
