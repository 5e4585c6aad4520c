package api_test

import (
	"context"
	"testing"

	"castos/internal/api"
	"castos/internal/extraction"
	"castos/internal/resultcache"
	"castos/internal/testsupport"
)

func TestSubmitStoresPlotVerbatim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewJobService(store)
	ctx := context.Background()

	plain, err := svc.Submit(ctx, api.SubmitRequest{Title: "A", Plot: "A detective hunts a thief.", BudgetCap: 10})
	if err != nil {
		t.Fatalf("submit plain: %v", err)
	}
	padded, err := svc.Submit(ctx, api.SubmitRequest{Title: "B", Plot: "  A detective hunts a thief.\n", BudgetCap: 10})
	if err != nil {
		t.Fatalf("submit padded: %v", err)
	}

	stored, err := store.GetByID(ctx, padded.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v, %v", stored, err)
	}
	if stored.Plot != "  A detective hunts a thief.\n" {
		t.Fatalf("stored plot = %q", stored.Plot)
	}
	if plain.Plot == padded.Plot {
		t.Fatal("plots differing in whitespace were stored identically")
	}
	if resultcache.Key(extraction.CacheKeyPrefix, plain.Plot) == resultcache.Key(extraction.CacheKeyPrefix, padded.Plot) {
		t.Fatal("plots differing in whitespace share an extraction cache key")
	}
}

func TestValidateTrimsOnlyForChecking(t *testing.T) {
	svc := api.NewJobService(nil)
	req := api.SubmitRequest{Title: " T ", Plot: " P ", BudgetCap: 1}
	if err := svc.Validate(req); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := svc.Validate(api.SubmitRequest{Title: "T", Plot: " \n\t", BudgetCap: 1}); err == nil {
		t.Fatal("whitespace-only plot should fail validation")
	}
}
