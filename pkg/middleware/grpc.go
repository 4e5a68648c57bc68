package middleware

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mvpaudrey/afcon-live/pkg/ctxkeys"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

func grpcInternalError(r interface{}) error {
	return status.Error(codes.Internal, fmt.Sprintf("internal error: %v", r))
}

// GRPCLoggingInterceptor returns a unary server interceptor for request logging.
func GRPCLoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		ctx = context.WithValue(ctx, ctxkeys.KeyRequestStart, start)

		resp, err := handler(ctx, req)

		fields := logging.Fields{
			"method":  info.FullMethod,
			"latency": time.Since(start),
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.WithFields(fields).Warn("gRPC request failed")
		} else {
			logger.WithFields(fields).Debug("gRPC request completed")
		}

		return resp, err
	}
}

// GRPCStreamLoggingInterceptor returns a stream server interceptor for request logging.
// Streaming RPCs in this service run for the lifetime of a live-match subscription,
// so the logged latency is the whole stream's lifetime, not a single request.
func GRPCStreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()

		err := handler(srv, ss)

		fields := logging.Fields{
			"method":   info.FullMethod,
			"duration": time.Since(start),
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.WithFields(fields).Warn("gRPC stream ended with error")
		} else {
			logger.WithFields(fields).Debug("gRPC stream closed")
		}

		return err
	}
}

// GRPCRecoveryInterceptor converts a panic inside a unary handler into an error
// instead of crashing the process; no RPC in this service is allowed to take
// the server down.
func GRPCRecoveryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logging.Fields{
					"method": info.FullMethod,
					"panic":  r,
				}).Error("gRPC handler panic")
				err = grpcInternalError(r)
			}
		}()
		return handler(ctx, req)
	}
}

// GRPCStreamRecoveryInterceptor is the streaming counterpart of GRPCRecoveryInterceptor.
func GRPCStreamRecoveryInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logging.Fields{
					"method": info.FullMethod,
					"panic":  r,
				}).Error("gRPC stream handler panic")
				err = grpcInternalError(r)
			}
		}()
		return handler(srv, ss)
	}
}
