package storage

import (
	"context"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/db"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

// BranchScheduleCache is the local read model of branch operating hours,
// kept current by the branch.schedule.updated.v1 consumer.
type BranchScheduleCache struct {
	pool *db.Pool
}

func NewBranchScheduleCache(pool *db.Pool) *BranchScheduleCache {
	return &BranchScheduleCache{pool: pool}
}

func (c *BranchScheduleCache) Upsert(ctx context.Context, branchID string, cfg model.BranchScheduleConfig) error {
	days := make([]int32, 0, len(cfg.WorkingDays))
	for _, d := range cfg.WorkingDays {
		days = append(days, int32(d))
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO branch_schedules (branch_id, working_days, open_time, close_time, updated_at)
		VALUES ($1, $2, $3::time, $4::time, now())
		ON CONFLICT (branch_id) DO UPDATE SET
			working_days = EXCLUDED.working_days,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			updated_at = now()
	`, branchID, days, cfg.Hours.Open, cfg.Hours.Close)
	return err
}

// Get returns the cached schedule for the branch. A missing branch surfaces
// as pgx.ErrNoRows so callers can fall through to another source.
func (c *BranchScheduleCache) Get(ctx context.Context, branchID string) (model.BranchScheduleConfig, error) {
	var days []int32
	var cfg model.BranchScheduleConfig
	err := c.pool.QueryRow(ctx, `
		SELECT working_days,
			to_char(open_time, 'HH24:MI'),
			to_char(close_time, 'HH24:MI')
		FROM branch_schedules
		WHERE branch_id = $1
	`, branchID).Scan(&days, &cfg.Hours.Open, &cfg.Hours.Close)
	if err != nil {
		return model.BranchScheduleConfig{}, err
	}
	cfg.WorkingDays = make([]time.Weekday, 0, len(days))
	for _, d := range days {
		cfg.WorkingDays = append(cfg.WorkingDays, time.Weekday(d))
	}
	return cfg, nil
}
