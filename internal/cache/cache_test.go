package cache

import (
	"context"
	"testing"
	"time"

	"pharmapos/internal/domain"
)

func TestNoopCacheNeverHits(t *testing.T) {
	c := NoopDashboardCache{}
	if err := c.Set(context.Background(), "k", &domain.Dashboard{Date: "2024-03-14"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(context.Background(), "k"); ok || err != nil {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestDashboardKeyChangesWithRevision(t *testing.T) {
	a := DashboardKey("inst", 1, "2024-03-14")
	b := DashboardKey("inst", 2, "2024-03-14")
	if a == b {
		t.Fatalf("expected distinct keys, got %s", a)
	}
}
