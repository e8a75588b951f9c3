package branches

import (
	"context"
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/storage"
)

// Provider resolves the operating schedule for a branch.
type Provider interface {
	ScheduleConfig(ctx context.Context, branchID string) (model.BranchScheduleConfig, error)
}

type staticProvider struct {
	cfg model.BranchScheduleConfig
}

func NewStaticProvider(cfg model.BranchScheduleConfig) Provider {
	return &staticProvider{cfg: cfg}
}

func (p *staticProvider) ScheduleConfig(_ context.Context, _ string) (model.BranchScheduleConfig, error) {
	return p.cfg, nil
}

// DefaultSchedule is the fallback when neither the cache nor the branch
// service knows the branch: weekdays, eight to six.
func DefaultSchedule() model.BranchScheduleConfig {
	return model.BranchScheduleConfig{
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		Hours: model.OperatingHours{Open: "08:00", Close: "18:00"},
	}
}

type cachedProvider struct {
	cache *storage.BranchScheduleCache
	next  Provider
}

// NewCachedProvider reads the local branch schedule cache first and falls
// through to next when the branch is unknown there.
func NewCachedProvider(cache *storage.BranchScheduleCache, next Provider) Provider {
	return &cachedProvider{cache: cache, next: next}
}

func (p *cachedProvider) ScheduleConfig(ctx context.Context, branchID string) (model.BranchScheduleConfig, error) {
	cfg, err := p.cache.Get(ctx, branchID)
	if err == nil {
		return cfg, nil
	}
	if !storage.IsNotFound(err) {
		return model.BranchScheduleConfig{}, err
	}
	return p.next.ScheduleConfig(ctx, branchID)
}
