package grpcx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey struct{}

// RequestIDMetadataKey carries the request id over gRPC metadata. Metadata
// keys are lowercased on the wire, so the constant is lowercase too.
const RequestIDMetadataKey = "x-request-id"

// RequestIDFromContext returns the request id attached by the interceptors,
// or "" when none was propagated.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func NewRequestID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
