package grpcx

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestUnaryServerInterceptorPassesRequestThrough(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()

	req := struct{ Name string }{Name: "get-branch-schedule"}
	var gotCtx context.Context
	var gotReq any
	handler := func(ctx context.Context, r any) (any, error) {
		gotCtx = ctx
		gotReq = r
		return "reply", nil
	}

	resp, err := interceptor(context.Background(), req, &grpc.UnaryServerInfo{}, handler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "reply" {
		t.Fatalf("resp = %v, want reply", resp)
	}
	if gotReq != any(req) {
		t.Fatalf("handler req = %v, want %v", gotReq, req)
	}
	if RequestIDFromContext(gotCtx) == "" {
		t.Fatal("handler context missing generated request id")
	}
}

func TestUnaryServerInterceptorAdoptsIncomingID(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()

	md := metadata.Pairs(RequestIDMetadataKey, "req-abc")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	handler := func(ctx context.Context, _ any) (any, error) {
		if got := RequestIDFromContext(ctx); got != "req-abc" {
			t.Fatalf("request id = %q, want req-abc", got)
		}
		return nil, nil
	}
	if _, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}
