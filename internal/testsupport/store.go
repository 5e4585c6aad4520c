package testsupport

import (
	"context"
	"testing"

	"castos/internal/config"
	"castos/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, plot string, budget float64, industry string) *queue.Job {
	t.Helper()

	job, err := store.Create(context.Background(), queue.NewJob{Title: "Test Job", Plot: plot, BudgetCap: budget, Industry: industry})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
