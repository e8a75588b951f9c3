//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/kunal-deshmukh/drivetrack/libs/db"
	"github.com/kunal-deshmukh/drivetrack/services/branch-service/internal/storage"
)

func startGrpcServer(_ context.Context, _ *slog.Logger, _ *db.Pool, _ *storage.Repository) error {
	return nil
}
