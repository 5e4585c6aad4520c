// Package resultcache provides the content-addressed result cache used to
// avoid repeating expensive generative calls.
//
// Cache wraps a Backend and is strictly best effort: a backend error on read
// is reported as a miss and an error on write is dropped, so callers never see
// cache failures. Keys are derived from a digest of the exact input text, so
// any byte difference produces a different key.
//
// Two backends are provided: BadgerStore persists entries on disk with
// native per-entry TTLs, and MemoryStore keeps them in process for tests
// and ephemeral runs.
package resultcache
