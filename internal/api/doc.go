// Package api exposes the casting job queue over HTTP.
//
// Routes:
//
//	POST   /api/jobs        submit a job (202, processed in the background)
//	GET    /api/jobs        list jobs, newest first, optional ?status=
//	GET    /api/jobs/{id}   describe one job
//	DELETE /api/jobs/{id}   delete a job
//	GET    /api/health      database reachability and queue counts
//	GET    /metrics         Prometheus collectors
//
// Stored JSON payloads (raw characters, optimization result) are passed
// through as json.RawMessage so they are not decoded and re-encoded.
package api
