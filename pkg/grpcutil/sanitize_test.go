package grpcutil

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestSanitizeErrorUsesGenericMessageOutsideInterceptor(t *testing.T) {
	err := SanitizeError(status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD"))
	st, _ := status.FromError(err)
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected code to be preserved, got %v", st.Code())
	}
	if st.Message() != grpcCodeMessages[codes.InvalidArgument] {
		t.Fatalf("expected the generic message without a method context, got %q", st.Message())
	}
}

func TestSanitizeUnaryServerInterceptorUsesMethodOverride(t *testing.T) {
	interceptor := SanitizeUnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/afcon.AFCON/GetFixturesByDate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "underlying parse failure: leading zero")
	}

	_, err := interceptor(context.Background(), nil, info, handler)
	st, _ := status.FromError(err)
	want := methodCodeMessages["/afcon.AFCON/GetFixturesByDate"][codes.InvalidArgument]
	if st.Message() != want {
		t.Fatalf("got message %q, want %q", st.Message(), want)
	}
}

func TestSanitizeUnaryServerInterceptorFallsBackForUnlistedMethod(t *testing.T) {
	interceptor := SanitizeUnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/afcon.AFCON/StreamLiveMatches"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unavailable, "internal detail that should not leak")
	}

	_, err := interceptor(context.Background(), nil, info, handler)
	st, _ := status.FromError(err)
	if st.Message() != grpcCodeMessages[codes.Unavailable] {
		t.Fatalf("expected generic message for a method with no override, got %q", st.Message())
	}
}

func TestSanitizeUnaryServerInterceptorPassesThroughNilError(t *testing.T) {
	interceptor := SanitizeUnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/afcon.AFCON/SyncFixtures"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}

	resp, err := interceptor(context.Background(), nil, info, handler)
	if err != nil || resp != "ok" {
		t.Fatalf("expected the response to pass through untouched, got resp=%v err=%v", resp, err)
	}
}
