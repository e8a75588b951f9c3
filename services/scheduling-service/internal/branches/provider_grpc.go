//go:build protogen

package branches

import (
	"context"
	"log/slog"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/grpcx"
	branchv1 "github.com/kunal-deshmukh/drivetrack/protos/gen/branch/v1"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

type grpcProvider struct {
	client branchv1.BranchServiceClient
}

func NewBranchProvider(logger *slog.Logger, fallback Provider, addr string) (Provider, error) {
	if addr == "" {
		return fallback, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc branch provider unavailable, using fallback", "err", err)
		return fallback, nil
	}

	logger.Info("grpc branch provider enabled", "addr", addr)
	return &grpcProvider{client: branchv1.NewBranchServiceClient(conn)}, nil
}

func (p *grpcProvider) ScheduleConfig(ctx context.Context, branchID string) (model.BranchScheduleConfig, error) {
	resp, err := p.client.GetBranchSchedule(ctx, &branchv1.BranchScheduleRequest{BranchId: branchID})
	if err != nil {
		return model.BranchScheduleConfig{}, err
	}
	cfg := model.BranchScheduleConfig{
		Hours: model.OperatingHours{
			Open:  resp.GetOpenTime(),
			Close: resp.GetCloseTime(),
		},
	}
	for _, d := range resp.GetWorkingDays() {
		if d < 0 || d > 6 {
			continue
		}
		cfg.WorkingDays = append(cfg.WorkingDays, time.Weekday(d))
	}
	return cfg, nil
}
