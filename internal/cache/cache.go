package cache

import (
	"context"
	"fmt"
	"time"

	"pharmapos/internal/domain"
)

type DashboardCache interface {
	Get(ctx context.Context, key string) (*domain.Dashboard, bool, error)
	Set(ctx context.Context, key string, value *domain.Dashboard, ttl time.Duration) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context, _ string) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ string, _ *domain.Dashboard, _ time.Duration) error {
	return nil
}

// DashboardKey changes whenever the ledger revision or the calendar day does,
// so stale entries are never read back.
func DashboardKey(instance string, revision uint64, day string) string {
	return fmt.Sprintf("pharmapos:dashboard:%s:%d:%s", instance, revision, day)
}
