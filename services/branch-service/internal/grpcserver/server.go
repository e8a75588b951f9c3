//go:build protogen

package grpcserver

import (
	"context"

	"github.com/kunal-deshmukh/drivetrack/libs/db"
	branchv1 "github.com/kunal-deshmukh/drivetrack/protos/gen/branch/v1"
	"github.com/kunal-deshmukh/drivetrack/services/branch-service/internal/storage"
	"google.golang.org/grpc"
)

type server struct {
	branchv1.UnimplementedBranchServiceServer
	pool *db.Pool
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, pool *db.Pool, repo *storage.Repository) {
	branchv1.RegisterBranchServiceServer(grpcServer, &server{pool: pool, repo: repo})
}

func (s *server) GetBranchSchedule(ctx context.Context, req *branchv1.BranchScheduleRequest) (*branchv1.BranchScheduleResponse, error) {
	b, err := s.repo.GetOrCreateBranch(ctx, req.GetBranchId())
	if err != nil {
		return nil, err
	}

	resp := &branchv1.BranchScheduleResponse{
		BranchId:  b.BranchID,
		OpenTime:  b.OpenTime,
		CloseTime: b.CloseTime,
	}
	for _, d := range b.WorkingDays {
		resp.WorkingDays = append(resp.WorkingDays, int32(d))
	}
	return resp, nil
}
