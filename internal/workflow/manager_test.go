package workflow_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"castos/internal/queue"
	"castos/internal/testsupport"
	"castos/internal/workflow"
)

// countingProcessor completes jobs after a short delay and tracks overlap.
type countingProcessor struct {
	store *queue.Store
	delay time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32

	mu   sync.Mutex
	seen map[int64]int
}

func (p *countingProcessor) Process(ctx context.Context, id int64) (workflow.Outcome, error) {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if cur <= peak || p.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	p.mu.Lock()
	p.seen[id]++
	p.mu.Unlock()

	time.Sleep(p.delay)
	job, err := p.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return workflow.OutcomeSkipped, err
	}
	job.Status = queue.StatusCompleted
	return workflow.OutcomeCompleted, p.store.Save(ctx, job)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestManagerDispatchesPendingJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	for i := 0; i < 5; i++ {
		testsupport.NewJob(t, store, "plot", 10, "")
	}

	proc := &countingProcessor{store: store, delay: 30 * time.Millisecond, seen: map[int64]int{}}
	mgr := workflow.NewManager(store, proc, time.Hour, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Serve(ctx) }()

	waitFor(t, 5*time.Second, func() bool {
		stats, err := store.Stats(context.Background())
		return err == nil && stats[queue.StatusCompleted] == 5
	})
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if peak := proc.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	for id, n := range proc.seen {
		if n != 1 {
			t.Fatalf("job %d processed %d times", id, n)
		}
	}
}

func TestManagerNotifyStartsNewJobPromptly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	proc := &countingProcessor{store: store, seen: map[int64]int{}}
	mgr := workflow.NewManager(store, proc, time.Hour, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = mgr.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	job := testsupport.NewJob(t, store, "late plot", 10, "")
	mgr.Notify()

	waitFor(t, 2*time.Second, func() bool {
		got, err := store.GetByID(context.Background(), job.ID)
		return err == nil && got != nil && got.Status == queue.StatusCompleted
	})
	summary := mgr.Status(context.Background())
	if !summary.Running || summary.QueueStats[queue.StatusCompleted] != 1 {
		t.Fatalf("status = %+v", summary)
	}
}

func TestManagerFinishesInFlightJobOnShutdown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "plot", 10, "")
	proc := &countingProcessor{store: store, delay: 100 * time.Millisecond, seen: map[int64]int{}}
	mgr := workflow.NewManager(store, proc, time.Hour, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Serve(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return len(mgr.InFlight()) == 1 })
	cancel()
	<-done

	got, err := store.GetByID(context.Background(), job.ID)
	if err != nil || got.Status != queue.StatusCompleted {
		t.Fatalf("in-flight job not finished on shutdown: %#v, %v", got, err)
	}
}
