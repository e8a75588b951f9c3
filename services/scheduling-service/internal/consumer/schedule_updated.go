package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/schedule"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type scheduleUpdatedPayload struct {
	BranchID    string `json:"branch_id"`
	WorkingDays []int  `json:"working_days"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
}

// ScheduleUpdatedHandler applies branch.schedule.updated.v1 events to the
// local branch schedule cache.
func ScheduleUpdatedHandler(logger *slog.Logger, cache *storage.BranchScheduleCache) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var p scheduleUpdatedPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return fmt.Errorf("decode schedule update: %w", err)
		}
		if p.BranchID == "" {
			return fmt.Errorf("schedule update missing branch_id")
		}

		open, err := schedule.NormalizeClock(p.OpenTime)
		if err != nil {
			return fmt.Errorf("schedule update open_time: %w", err)
		}
		closeAt, err := schedule.NormalizeClock(p.CloseTime)
		if err != nil {
			return fmt.Errorf("schedule update close_time: %w", err)
		}

		cfg := model.BranchScheduleConfig{
			Hours: model.OperatingHours{Open: open, Close: closeAt},
		}
		for _, d := range p.WorkingDays {
			if d < 0 || d > 6 {
				return fmt.Errorf("schedule update working day out of range: %d", d)
			}
			cfg.WorkingDays = append(cfg.WorkingDays, time.Weekday(d))
		}

		if err := cache.Upsert(ctx, p.BranchID, cfg); err != nil {
			return fmt.Errorf("upsert branch schedule: %w", err)
		}
		logger.Info("branch schedule updated",
			"branch_id", p.BranchID,
			"open", cfg.Hours.Open,
			"close", cfg.Hours.Close,
			"working_days", len(cfg.WorkingDays),
		)
		return nil
	}
}
